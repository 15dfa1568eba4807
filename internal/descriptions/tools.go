package descriptions

import "sort"

// Tool names exposed over MCP
const (
	RedactPDF        = "redact_pdf"
	ProcessDirectory = "process_directory"
	ListProcessed    = "list_processed"
	CleanupWorkspace = "cleanup_workspace"
	RedactorInfo     = "redactor_info"
)

// Tool descriptions with examples and workflows

const (
	RedactPDFDescription = `Remove prices from a single PDF and write a redacted copy.

**When to use:** One order confirmation or invoice must be shared without its prices, outside the regular input directory pass.

**What is removed:** Numbers under "Pris" and "Total" column headers, everything in a "Kampanje" section and every MVA row. Product names, quantities and addresses stay.

**Examples:**
• Redact one invoice: "Remove prices from faktura-1042.pdf"
• Choose the output: "Redact ordre.pdf and write it to the output directory as ordre-kunde.pdf"

**Parameters:** path is resolved against the input directory when relative. path must stay inside the workspace. output is a .pdf name resolved against the output directory and must stay inside it; it defaults to Prosessert_<name>.pdf.

**Best practices:** Check the reported region count; zero regions on a document with prices usually means the template needs a margin profile.`

	ProcessDirectoryDescription = `Redact every new PDF in the input directory.

**When to use:** Files were dropped or uploaded into the input directory and should all be processed in one go.

**Behavior:** Files are handled one at a time in name order. A file that fails is reported and the pass carries on. Files handled earlier in this session, successfully or not, are skipped.

**Common workflows:**
1. Batch: copy PDFs into the input directory → process_directory → list_processed
2. Retry: fix a failing file → cleanup_workspace → copy again → process_directory`

	ListProcessedDescription = `List handled input files and the redacted files ready for download.

**When to use:** After a pass, to see which files failed and which Prosessert_ files exist.

**Output:** Each handled input with its status (processed or failed, with the error) and the redacted files in the output directory.`

	CleanupWorkspaceDescription = `Delete all input PDFs and redacted files and forget which files were handled.

**When to use:** At the end of a session, or to reprocess files from scratch.

**Safety:** Requires confirm=true. Deletion cannot be undone.`

	RedactorInfoDescription = `Show how the redactor is configured.

**Output:** Server name and version, the classification strategy (column-section or line-keyword), the apply mode (redact removes the text, fill only paints over it), the workspace directories, the active margins and the available tools.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	RedactPDF:        RedactPDFDescription,
	ProcessDirectory: ProcessDirectoryDescription,
	ListProcessed:    ListProcessedDescription,
	CleanupWorkspace: CleanupWorkspaceDescription,
	RedactorInfo:     RedactorInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// Summary returns the first line of a tool description
func Summary(toolName string) string {
	desc := GetToolDescription(toolName)
	for i, r := range desc {
		if r == '\n' {
			return desc[:i]
		}
	}
	return desc
}

// GetAllToolNames returns the tool names in sorted order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
