package mcpserver

// WorkFormatContract describes the work document format that LLM consumers
// should follow when drafting works.
const WorkFormatContract = `# Work Document Format

Each portfolio work lives in works/<name>.markdown. <name> is the work's
identifier and URL slug (/works/<name>): lowercase, no slashes.

## Structure

` + "```" + `
Title: Human-readable title
Date: 2024-05-01
Keywords: go, web, tooling
Link: https://example.com/project
Github: someone/project

Markdown body. The first paragraph is used as the summary on the homepage.
` + "```" + `

## Rules

1. The header block is one ` + "`Key: Value`" + ` line per field and ends at the first
   blank line. Keys are case-insensitive.
2. ` + "`Date`" + ` accepts any common date format; unparseable dates sort last.
3. ` + "`Keywords`" + ` is comma-separated. Works without keywords are listed under ` + "`none`" + `.
4. ` + "`Published`" + ` with an empty value hides the work. Any other value, including
   ` + "`false`" + `, leaves it published.
5. Keep the first body paragraph short; it is shown as the work's description.
6. After editing a work, add its name to the top of the recency log.
`
