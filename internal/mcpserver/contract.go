package mcpserver

// OutlineFormatContract describes the canonical outline document format
// that LLM consumers should follow when creating or editing documents.
const OutlineFormatContract = `# Taskdown Outline Format Contract

Every outline document stored in taskdown MUST follow this structure.

## Structure

` + "```" + `markdown
## Section Name

- [ ] Task title #tag [created: 2025-01-20 09:15]
    - [ ] Child task #wait
    - [x] Done child [done: 2025-01-21 17:00]
        > [created: 2025-01-21 16:40] work-log line in free text
- [ ] Milestone title 🏁
- [ ] Scheduled event 📅 [due: 2025-02-01]
` + "```" + `

## Rules

1. **Sections** are delimited by ` + "`## Heading`" + ` lines. Content before the
   first heading belongs to the unnamed default section.
2. **Indentation** is 4 spaces (or one tab) per tree level. Minor drift is
   tolerated: 2-5 leading spaces read as level 1, 6-9 as level 2.
3. **Checkboxes** use ` + "`- [ ]`" + ` / ` + "`- [x]`" + ` (case-insensitive, the
   leading dash is optional).
4. **Tags** are inline ` + "`#word`" + ` tokens. They are lowercased and
   deduplicated; ` + "`#wait`" + ` marks an explicit blocker and ` + "`#ref`" + ` is
   reserved for reference nodes.
5. **Metadata** uses bracketed ` + "`[key: value]`" + ` pairs. ` + "`created`" + ` and
   ` + "`done`" + ` take the unified timestamp format ` + "`yyyy-MM-dd HH:mm`" + `;
   ` + "`due`" + ` also accepts a bare date.
6. **Work logs** are ` + "`> [created: yyyy-MM-dd HH:mm] text`" + ` lines directly
   under their task, indented one level deeper.
7. **Anchors** are HTML ` + "`<a id=\"...\"></a>`" + ` tags managed by the system:
   they appear only on tasks that other tasks reference. Do not invent them.
8. **References** render as ` + "`- [ ] [Title](#anchor) #ref`" + ` and mirror
   their target's title and checked state. Create them through the
   add_reference tool, never by hand.
9. **Event types**: a trailing 🏁 marks a milestone, a trailing 📅 marks a
   calendar event; plain tasks carry no marker.
10. **Encoding** is UTF-8 with a single trailing newline. Unparseable lines
    are silently ignored, so malformed edits lose data rather than erroring.

## Editing protocol

Node ids are NOT stored in the document; they are assigned at parse time and
are only valid against the checksum returned alongside them. Always
read_outline first, then pass that checksum to mutating tools. A checksum
mismatch means the document changed: re-read and retry.
`
