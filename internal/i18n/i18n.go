// Package i18n holds the user-facing strings for the supported locales.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/julianstephens/markease/internal/models"
)

// Message keys
const (
	NewNoteTitle   = "notes.new_title"
	NewNoteContent = "notes.new_content"

	PromptGrammar   = "ai.prompt_grammar"
	PromptSummarize = "ai.prompt_summarize"
	PromptPolish    = "ai.prompt_polish"
	PromptGeneric   = "ai.prompt_generic"

	TabFocus = "tab.focus"
	TabBody  = "tab.body"
	TabNotes = "tab.notes"

	FocusIdle    = "focus.idle"
	FocusRunning = "focus.running"
	FocusToday   = "focus.today"
	FocusTotal   = "focus.total"
	FocusDays    = "focus.days"
	FocusWeekly  = "focus.weekly"
	FocusJournal = "focus.journal"

	BodyFat    = "body.fat"
	BodyWeight = "body.weight"
	BodyHeight = "body.height"
	BodyWaist  = "body.waist"
	BodyEmpty  = "body.empty"
	BodyHint   = "body.hint"
	BodyRecent = "body.recent"
	BodyRow    = "body.row"
	BodySaved  = "body.saved"

	FocusLogged        = "focus.logged"
	LanguageSaveFailed = "settings.language_failed"

	NoteSaved         = "notes.saved"
	NoteUnsaved       = "notes.unsaved"
	NotesEmpty        = "notes.empty"
	NoteSaveFailed    = "notes.save_failed"
	NoteCreateFailed  = "notes.create_failed"
	NoteDeleted       = "notes.deleted"
	NoteExported      = "notes.exported"
	NoteDeleteConfirm = "notes.delete_confirm"
	ConfirmYesNo      = "confirm.yes_no"

	PreviewFooter = "preview.footer"
	PreviewFailed = "preview.failed"
	SnippetTitle  = "snippet.title"

	AIWorking      = "ai.working"
	AIFailed       = "ai.failed"
	AIApplyDiscard = "ai.apply_discard"
	AICancel       = "ai.cancel"
)

var entries = map[string][2]string{
	NewNoteTitle:   {"Untitled Note", "未命名笔记"},
	NewNoteContent: {"# New Note\n\nStart writing...", "# 新笔记\n\n开始写作..."},

	PromptGrammar:   {"Fix grammar and spelling mistakes. Keep the original meaning and formatting.", "修正语法和拼写错误，保持原意和格式。"},
	PromptSummarize: {"Summarize the text into a concise overview with bullet points.", "将文本总结为简洁的要点列表。"},
	PromptPolish:    {"Polish the writing to be clearer and more professional.", "润色文本，使其更加清晰、专业。"},
	PromptGeneric:   {"Improve the text.", "改进这段文本。"},

	TabFocus: {"Focus", "专注"},
	TabBody:  {"Body", "身体"},
	TabNotes: {"Notes", "笔记"},

	FocusIdle:    {"Ready to focus", "准备专注"},
	FocusRunning: {"Focusing", "专注中"},
	FocusToday:   {"Today: %s", "今日：%s"},
	FocusTotal:   {"Total: %.1fh", "累计：%.1f 小时"},
	FocusDays:    {"Days: %d", "天数：%d"},
	FocusWeekly:  {"Weekly focus (min)", "每周专注（分钟）"},
	FocusJournal: {"Journal", "日志"},

	BodyFat:    {"Body fat %%", "体脂率 %%"},
	BodyWeight: {"Weight kg", "体重 kg"},
	BodyHeight: {"Height cm", "身高 cm"},
	BodyWaist:  {"Waist cm", "腰围 cm"},
	BodyEmpty:  {"No measurements yet", "暂无测量数据"},
	BodyHint:   {"Press 'a' to record measurements.", "按 a 记录身体数据。"},
	BodyRecent: {"Recent", "最近记录"},
	BodyRow:    {"%s  %6s kg  %6s %%  waist %s", "%s  %6s kg  %6s %%  腰围 %s"},
	BodySaved:  {"Saved measurements for %s", "已保存 %s 的测量数据"},

	FocusLogged:        {"Session logged. Today: %s", "已记录专注。今日：%s"},
	LanguageSaveFailed: {"Failed to save language: %v", "保存语言失败：%v"},

	NoteSaved:         {"Saved", "已保存"},
	NoteUnsaved:       {"Unsaved changes", "未保存"},
	NotesEmpty:        {"No notes yet", "暂无笔记"},
	NoteSaveFailed:    {"Failed to save note: %v", "保存笔记失败：%v"},
	NoteCreateFailed:  {"Failed to create note: %v", "创建笔记失败：%v"},
	NoteDeleted:       {"Note deleted", "笔记已删除"},
	NoteExported:      {"Exported to %s", "已导出到 %s"},
	NoteDeleteConfirm: {"Delete this note?", "删除这条笔记？"},
	ConfirmYesNo:      {"[y] Yes   [n] No", "[y] 是   [n] 否"},

	PreviewFooter: {"[ctrl+r] Edit   [↑/↓] Scroll", "[ctrl+r] 编辑   [↑/↓] 滚动"},
	PreviewFailed: {"Preview failed: %v", "预览失败：%v"},
	SnippetTitle:  {"Insert markdown", "插入 Markdown"},

	AIWorking:      {"Thinking...", "思考中..."},
	AIFailed:       {"AI request failed: %v", "AI 请求失败：%v"},
	AIApplyDiscard: {"[enter] Apply   [esc] Discard", "[enter] 应用   [esc] 放弃"},
	AICancel:       {"[esc] Cancel", "[esc] 取消"},
}

var printers map[models.Language]*message.Printer

func init() {
	b := catalog.NewBuilder(catalog.Fallback(language.AmericanEnglish))
	for key, msgs := range entries {
		_ = b.SetString(language.AmericanEnglish, key, msgs[0])
		_ = b.SetString(language.SimplifiedChinese, key, msgs[1])
	}
	printers = map[models.Language]*message.Printer{
		models.LanguageEnglish: message.NewPrinter(language.AmericanEnglish, message.Catalog(b)),
		models.LanguageChinese: message.NewPrinter(language.SimplifiedChinese, message.Catalog(b)),
	}
}

// T formats the message for key in lang. Unknown languages fall back to
// English.
func T(lang models.Language, key string, args ...any) string {
	p, ok := printers[lang]
	if !ok {
		p = printers[models.DefaultLanguage]
	}
	return p.Sprintf(key, args...)
}
