package locale

// Layout is the set of direction-dependent presentation decisions for one language.
type Layout struct {
	Lang          Lang      `json:"lang"`
	Dir           Direction `json:"dir"`
	TextAlign     string    `json:"text_align"`
	FlexDirection string    `json:"flex_direction"`
	StartSide     string    `json:"start_side"`
	EndSide       string    `json:"end_side"`
	// Degrees applied to directional icons (back/forward arrows, chevrons).
	IconRotation int `json:"icon_rotation"`
}

// LayoutFor mirrors alignment, flex ordering and icons under RTL.
func LayoutFor(l Lang) Layout {
	if l.IsRTL() {
		return Layout{
			Lang:          l,
			Dir:           RTL,
			TextAlign:     "right",
			FlexDirection: "row-reverse",
			StartSide:     "right",
			EndSide:       "left",
			IconRotation:  180,
		}
	}
	if !l.Valid() {
		l = English
	}
	return Layout{
		Lang:          l,
		Dir:           LTR,
		TextAlign:     "left",
		FlexDirection: "row",
		StartSide:     "left",
		EndSide:       "right",
		IconRotation:  0,
	}
}

// directionalIcons rotate under RTL; everything else renders as-is.
var directionalIcons = map[string]bool{
	"arrow-left":    true,
	"arrow-right":   true,
	"chevron-left":  true,
	"chevron-right": true,
	"back":          true,
	"forward":       true,
}

// IconRotation returns the rotation in degrees for the named icon.
func IconRotation(l Lang, icon string) int {
	if directionalIcons[icon] {
		return LayoutFor(l).IconRotation
	}
	return 0
}
