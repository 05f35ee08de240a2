package locale

import (
	"sort"
	"strings"
)

// catalog is the single source of display strings. Every key must carry both variants.
var catalog = map[string]Text{
	// common
	"common.all":      {EN: "All", AR: "الكل"},
	"common.search":   {EN: "Search", AR: "بحث"},
	"common.filter":   {EN: "Filter", AR: "تصفية"},
	"common.clear":    {EN: "Clear Filters", AR: "مسح الفلاتر"},
	"common.previous": {EN: "Previous", AR: "السابق"},
	"common.next":     {EN: "Next", AR: "التالي"},
	"common.selected": {EN: "%d selected", AR: "%d محدد"},
	"common.save":     {EN: "Save", AR: "حفظ"},
	"common.cancel":   {EN: "Cancel", AR: "إلغاء"},
	"common.delete":   {EN: "Delete", AR: "حذف"},
	"common.edit":     {EN: "Edit", AR: "تعديل"},
	"common.dismiss":  {EN: "Dismiss", AR: "إغلاق"},

	// pagination
	"pagination.showing": {EN: "Showing %d-%d of %d entries", AR: "عرض %d-%d من %d سجل"},
	"pagination.page":    {EN: "Page %d of %d", AR: "صفحة %d من %d"},

	// empty states
	"documents.empty": {EN: "No documents match the current filters", AR: "لا توجد مستندات مطابقة للفلاتر الحالية"},
	"audit.empty":     {EN: "No audit entries match the current filters", AR: "لا توجد سجلات تدقيق مطابقة للفلاتر الحالية"},
	"keywords.empty":  {EN: "No masking keywords configured", AR: "لا توجد كلمات حجب مضافة"},
	"review.empty":    {EN: "The review queue is empty", AR: "قائمة المراجعة فارغة"},

	// document columns
	"documents.title":        {EN: "Documents", AR: "المستندات"},
	"documents.name":         {EN: "Document Name", AR: "اسم المستند"},
	"documents.case_number":  {EN: "Case Number", AR: "رقم القضية"},
	"documents.upload_date":  {EN: "Upload Date", AR: "تاريخ الرفع"},
	"documents.type":         {EN: "Type", AR: "النوع"},
	"documents.status":       {EN: "Status", AR: "الحالة"},
	"documents.confidence":   {EN: "AI Confidence", AR: "دقة الذكاء الاصطناعي"},
	"documents.redacted":     {EN: "%d areas redacted", AR: "%d مناطق محجوبة"},
	"documents.sensitive":    {EN: "Sensitive Data Found", AR: "البيانات الحساسة المكتشفة"},
	"documents.pages":        {EN: "Pages", AR: "الصفحات"},
	"review.title":           {EN: "Review Queue", AR: "قائمة المراجعة"},
	"review.priority_queue":  {EN: "Priority Queue - %d documents", AR: "قائمة الأولوية - %d مستند"},
	"review.document_review": {EN: "Document Review: %s", AR: "مراجعة المستند: %s"},
	"review.case_summary":    {EN: "Case %s • AI Confidence: %d%%", AR: "القضية %s • دقة الذكاء الاصطناعي: %d%%"},

	// statuses
	"status.pending":            {EN: "Pending", AR: "قيد الانتظار"},
	"status.approved":           {EN: "Approved", AR: "تمت الموافقة"},
	"status.rejected":           {EN: "Rejected", AR: "مرفوض"},
	"status.processing":         {EN: "Processing", AR: "قيد المعالجة"},
	"status.low_confidence":     {EN: "Low Confidence", AR: "ثقة منخفضة"},
	"status.requires_attention": {EN: "Requires Attention", AR: "يتطلب الانتباه"},
	"status.pending_decision":   {EN: "Saving decision…", AR: "جارٍ حفظ القرار…"},

	// priorities
	"priority.high":   {EN: "High", AR: "عالية"},
	"priority.medium": {EN: "Medium", AR: "متوسطة"},
	"priority.low":    {EN: "Low", AR: "منخفضة"},

	// sort keys
	"sort.score":    {EN: "AI Score", AR: "درجة الذكاء الاصطناعي"},
	"sort.date":     {EN: "Upload Date", AR: "تاريخ الرفع"},
	"sort.priority": {EN: "Priority", AR: "الأولوية"},

	// decisions
	"decision.approve":         {EN: "Approve", AR: "موافقة"},
	"decision.reject":          {EN: "Reject", AR: "رفض"},
	"decision.request_changes": {EN: "Request Changes", AR: "طلب تعديلات"},
	"decision.bulk_approve":    {EN: "Approve Selected", AR: "الموافقة على المحدد"},
	"decision.bulk_reject":     {EN: "Reject Selected", AR: "رفض المحدد"},

	// audit
	"audit.title":           {EN: "Audit Log Entries", AR: "سجلات التدقيق"},
	"audit.timestamp":       {EN: "Timestamp", AR: "الوقت والتاريخ"},
	"audit.user":            {EN: "User", AR: "المستخدم"},
	"audit.action":          {EN: "Action", AR: "الإجراء"},
	"audit.document":        {EN: "Document", AR: "المستند"},
	"audit.details":         {EN: "Details", AR: "التفاصيل"},
	"audit.ip_address":      {EN: "IP Address", AR: "عنوان IP"},
	"audit.session":         {EN: "Session", AR: "الجلسة"},
	"audit.all_users":       {EN: "All Users", AR: "كل المستخدمين"},
	"audit.all_actions":     {EN: "All Actions", AR: "كل الإجراءات"},
	"audit.total_events":    {EN: "Total Events", AR: "إجمالي الأحداث"},
	"audit.active_users":    {EN: "Active Users", AR: "المستخدمون النشطون"},
	"audit.security_events": {EN: "Security Events", AR: "أحداث الأمان"},
	"audit.pick_date":       {EN: "Pick a date", AR: "اختر تاريخاً"},

	// audit action types
	"action.view":     {EN: "View", AR: "عرض"},
	"action.approve":  {EN: "Approve", AR: "موافقة"},
	"action.reject":   {EN: "Reject", AR: "رفض"},
	"action.upload":   {EN: "Upload", AR: "رفع"},
	"action.edit":     {EN: "Edit", AR: "تعديل"},
	"action.delete":   {EN: "Delete", AR: "حذف"},
	"action.login":    {EN: "Login", AR: "تسجيل الدخول"},
	"action.settings": {EN: "Settings", AR: "الإعدادات"},

	// audit event labels and details
	"audit.event.approve":           {EN: "Document Approved", AR: "تمت الموافقة على المستند"},
	"audit.event.reject":            {EN: "Document Rejected", AR: "تم رفض المستند"},
	"audit.event.request_changes":   {EN: "Changes Requested", AR: "تم طلب تعديلات"},
	"audit.event.login":             {EN: "User Login", AR: "تسجيل دخول المستخدم"},
	"audit.event.logout":            {EN: "User Logout", AR: "تسجيل خروج المستخدم"},
	"audit.event.keyword_created":   {EN: "Masking Keyword Added", AR: "تمت إضافة كلمة حجب"},
	"audit.event.keyword_updated":   {EN: "Masking Keyword Updated", AR: "تم تحديث كلمة حجب"},
	"audit.event.keyword_deleted":   {EN: "Masking Keyword Deleted", AR: "تم حذف كلمة حجب"},
	"audit.detail.decision":         {EN: "Status changed from %s to %s", AR: "تم تغيير الحالة من %s إلى %s"},
	"audit.detail.login":            {EN: "Successful authentication", AR: "تم تسجيل الدخول بنجاح"},
	"audit.detail.logout":           {EN: "Session ended by the user", AR: "أنهى المستخدم الجلسة"},
	"audit.detail.keyword_created":  {EN: "Keyword \"%s\" added", AR: "تمت إضافة الكلمة \"%s\""},
	"audit.detail.keyword_updated":  {EN: "Keyword \"%s\" updated", AR: "تم تحديث الكلمة \"%s\""},
	"audit.event.settings_updated":  {EN: "AI Settings Updated", AR: "تم تحديث إعدادات الذكاء الاصطناعي"},
	"audit.detail.settings_updated": {EN: "Updated AI confidence threshold to %d%%", AR: "تم تحديث عتبة ثقة الذكاء الاصطناعي إلى %d%%"},
	"audit.detail.keyword_deleted":  {EN: "Keyword \"%s\" deleted", AR: "تم حذف الكلمة \"%s\""},

	// roles
	"role.admin":     {EN: "Admin", AR: "مشرف"},
	"role.reviewer":  {EN: "Reviewer", AR: "مراجع"},
	"role.publisher": {EN: "Publisher", AR: "ناشر"},

	// keywords
	"keywords.title":           {EN: "Masking Keywords", AR: "كلمات الحجب"},
	"keywords.keyword":         {EN: "Keyword/Pattern", AR: "الكلمة/النمط"},
	"keywords.language":        {EN: "Language", AR: "اللغة"},
	"keywords.category":        {EN: "Category", AR: "الفئة"},
	"keywords.regex":           {EN: "Regular Expression", AR: "تعبير نمطي"},
	"keywords.add":             {EN: "Add Keyword", AR: "إضافة كلمة"},
	"category.personal":        {EN: "Personal", AR: "شخصي"},
	"category.financial":       {EN: "Financial", AR: "مالي"},
	"category.legal":           {EN: "Legal", AR: "قانوني"},
	"category.custom":          {EN: "Custom", AR: "مخصص"},
	"keyword_language.ar":      {EN: "Arabic", AR: "العربية"},
	"keyword_language.en":      {EN: "English", AR: "الإنجليزية"},
	"keyword_language.both":    {EN: "Both", AR: "كلاهما"},
	"validation.required":      {EN: "This field is required", AR: "هذا الحقل مطلوب"},
	"validation.invalid_regex": {EN: "Invalid regular expression", AR: "تعبير نمطي غير صالح"},
	"validation.too_long":      {EN: "Value is too long", AR: "القيمة طويلة جداً"},
	"validation.invalid_value": {EN: "Unsupported value", AR: "قيمة غير مدعومة"},
	"validation.out_of_range":  {EN: "Value is out of range", AR: "القيمة خارج النطاق المسموح"},
	"validation.duplicate":     {EN: "This keyword already exists", AR: "هذه الكلمة موجودة بالفعل"},

	// AI settings
	"settings.title":             {EN: "AI Processing Settings", AR: "إعدادات معالجة الذكاء الاصطناعي"},
	"settings.ai_threshold":      {EN: "AI Confidence Threshold", AR: "عتبة ثقة الذكاء الاصطناعي"},
	"settings.ai_threshold_hint": {EN: "Documents with AI confidence below this threshold will require manual review", AR: "المستندات التي تقل ثقة الذكاء الاصطناعي بها عن هذه العتبة ستحتاج إلى مراجعة يدوية"},
	"settings.auto_publish":      {EN: "Auto-Publish High Confidence Documents", AR: "النشر التلقائي للمستندات ذات الثقة العالية"},
	"settings.auto_publish_hint": {EN: "Automatically publish documents with confidence above 90%", AR: "نشر المستندات تلقائيًا التي تزيد ثقة الذكاء الاصطناعي بها عن ٩٠٪"},
	"settings.strict_mode":       {EN: "Strict Redaction Mode", AR: "وضع التنقيح الصارم"},
	"settings.strict_mode_hint":  {EN: "Apply more aggressive masking patterns", AR: "تطبيق أنماط إخفاء أكثر صرامة"},
	"settings.save":              {EN: "Save AI Settings", AR: "حفظ إعدادات الذكاء الاصطناعي"},

	// navigation
	"nav.dashboard": {EN: "Dashboard", AR: "لوحة التحكم"},
	"nav.documents": {EN: "Documents", AR: "المستندات"},
	"nav.review":    {EN: "Review", AR: "المراجعة"},
	"nav.audit":     {EN: "Audit Log", AR: "سجل التدقيق"},
	"nav.settings":  {EN: "Settings", AR: "الإعدادات"},
	"nav.admin":     {EN: "Administration", AR: "الإدارة"},
	"nav.logout":    {EN: "Logout", AR: "تسجيل الخروج"},

	// notifications
	"error.decision_failed":    {EN: "The decision could not be saved. The document was restored.", AR: "تعذر حفظ القرار. تمت استعادة المستند."},
	"error.conflict":           {EN: "The document was changed by another decision. Please review again.", AR: "تم تغيير المستند بقرار آخر. يرجى المراجعة مرة أخرى."},
	"error.superseded":         {EN: "A newer decision replaced this one.", AR: "تم استبدال هذا القرار بقرار أحدث."},
	"error.illegal_transition": {EN: "This decision is not allowed for the document's current status.", AR: "هذا القرار غير مسموح به للحالة الحالية للمستند."},
	"error.unavailable":        {EN: "The service is temporarily unavailable.", AR: "الخدمة غير متاحة مؤقتاً."},
	"notice.bulk_done":         {EN: "%d of %d documents updated", AR: "تم تحديث %d من %d مستند"},

	// dashboard statistics
	"stats.total":           {EN: "Total Documents", AR: "إجمالي المستندات"},
	"stats.avg_confidence":  {EN: "Avg AI Score", AR: "متوسط درجة الذكاء الاصطناعي"},
	"stats.below_threshold": {EN: "Below Threshold", AR: "أقل من الحد"},
	"stats.distribution":    {EN: "AI Confidence Distribution", AR: "توزيع دقة الذكاء الاصطناعي"},
}

// T returns the label for key in l. Missing keys render as the key itself so gaps are visible.
func T(l Lang, key string) string {
	t, ok := catalog[key]
	if !ok {
		return key
	}
	return t.In(l)
}

// Tf formats the label template with args using the number conventions of l.
func Tf(l Lang, key string, args ...any) string {
	return Printer(l).Sprintf(T(l, key), args...)
}

// Textf renders key in both languages with the same args.
func Textf(key string, args ...any) Text {
	return Text{AR: Tf(Arabic, key, args...), EN: Tf(English, key, args...)}
}

// Has reports whether key exists in the catalog.
func Has(key string) bool {
	_, ok := catalog[key]
	return ok
}

// Keys returns all catalog keys, sorted.
func Keys() []string {
	out := make([]string, 0, len(catalog))
	for k := range catalog {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Bundle returns every label of l, optionally restricted to keys under prefix.
func Bundle(l Lang, prefix string) map[string]string {
	out := make(map[string]string, len(catalog))
	for k, t := range catalog {
		if prefix != "" && !strings.HasPrefix(k, prefix) {
			continue
		}
		out[k] = t.In(l)
	}
	return out
}

// Missing lists keys lacking one of the language variants.
func Missing() []string {
	var out []string
	for k, t := range catalog {
		if !t.Complete() {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Label renders a "<group>.<value>" enumeration label, e.g. Label(l, "status", "pending").
func Label(l Lang, group, value string) string {
	return T(l, group+"."+value)
}
