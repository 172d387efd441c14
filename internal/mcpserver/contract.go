package mcpserver

// JournalFormatURI is the resource URI of the journal format description.
const JournalFormatURI = "daybook://journal-format"

// JournalFormat describes the journal document that export_journal produces
// and import_journal accepts.
const JournalFormat = `# Daybook Journal Format

A journal is one UTF-8 Markdown document holding notes, todos and schedules
grouped by calendar day, newest day first.

## Structure

` + "```" + `markdown
# 📒 日记导出

> 共 1 条笔记 · 1 条待办 · 1 条日程

## 2024年1月15日 星期一

### 📝 笔记 (1)

#### 09:00 - 笔记 1
**标签:** #心情
今天很开心

### ✅ 待办 (1)

1. ⬜ 买牛奶
   **标签:** #购物
   **截止日期:** 2024-01-16
   **开始日期:** 2024-01-15

### 📅 日程 (1)

1. **10:00** - 周会
   讨论季度计划
   **类型:** meeting

---
` + "```" + `

## Rules

1. **Day headings** are ` + "`## YYYY年M月D日 星期X`" + `. ` + "`## YYYY-MM-DD`" + ` is also
   accepted. Items under a heading that is not a valid date are skipped and
   reported as dropped.
2. **Section headings** are ` + "`### 📝`" + ` (notes), ` + "`### ✅`" + ` (todos) and
   ` + "`### 📅`" + ` (schedules). The count in parentheses is informational.
3. **Notes** start with ` + "`#### HH:MM - 笔记 N`" + `. An optional ` + "`**标签:**`" + ` line
   follows, then the body until the next heading, ` + "`---`" + ` or blank line that
   ends the section. Inline ` + "`#tags`" + ` in the body are lifted into the tag list.
4. **Todos** are ` + "`N. ⬜ text`" + ` (open) or ` + "`N. ✅ text`" + ` (done), with optional
   ` + "`**标签:**`" + `, ` + "`**截止日期:**`" + ` and ` + "`**开始日期:**`" + ` lines directly below.
5. **Schedules** are ` + "`N. **time** - title`" + `, optionally followed by one
   description line and a ` + "`**类型:**`" + ` line. Types: work, personal, meeting,
   study, health, other.
6. **` + "`---`" + `** closes a day.
7. Lines outside this grammar are ignored on import.
`
