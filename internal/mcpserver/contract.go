package mcpserver

// FrontmatterContract describes the frontmatter every content page carries.
const FrontmatterContract = `# Page Frontmatter Contract

Content pages are ` + "`" + `.mdx` + "`" + ` (or ` + "`" + `.md` + "`" + `) files under the content directory.
Tools live in ` + "`" + `tools/` + "`" + `; the home page is ` + "`" + `index.mdx` + "`" + `.

## Structure

` + "```" + `markdown
---
title: Time Blocker                  # REQUIRED for tools: shown in navigation and listings
description: Visual time blocking    # OPTIONAL: one sentence, shown under the title
tags: productivity, planning         # OPTIONAL: comma-separated string
date: 2025-01-15                     # OPTIONAL: ISO-8601 date; newest tools list first
---

Body in Markdown/MDX.
` + "```" + `

## Rules

1. **Tags are one comma-separated string**, not a YAML list. Whitespace around
   each tag is ignored and tags are lower-cased, so ` + "`" + `Video, Audio` + "`" + ` and
   ` + "`" + `video,audio` + "`" + ` are the same.
2. **Tag identifiers** use lowercase letters, digits and hyphens
   (` + "`" + `time-management` + "`" + `). Only such tags can be linked in-page as
   ` + "`" + `[label](#time-management)` + "`" + `, which points to the tag listing.
3. **Home page category** is the first tag found in the category map:
   productivity, planning, time-management, scheduling → Productivity;
   video, audio, conversion, compression, editing, ffmpeg → Media & Video;
   image, photo → Image Processing; text, markdown → Text Tools;
   data, json, csv → Data Tools; anything else → Other Tools.
4. **Embedded tools** use ` + "`" + `<ToolEmbed src="/embeds/<file>.html" />` + "`" + `;
   the file must exist in the embeds directory.
5. **File names** are English kebab-case and become the page URL
   (` + "`" + `tools/time-blocker.mdx` + "`" + ` → ` + "`" + `/docs/tools/time-blocker` + "`" + `).
`
