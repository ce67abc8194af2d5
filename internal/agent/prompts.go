package agent

import "strings"

// BuildSystemPrompt is a pure function of (chat_mode, safety_mode) that
// names the mode explicitly, enumerates the capabilities available in it,
// enumerates what it cannot do, and in write mode adds file-editing usage
// guidance. Safety mode changes whether the prompt instructs the agent to
// ask for confirmation before destructive operations.
func BuildSystemPrompt(chatMode ChatMode, safetyMode SafetyMode) string {
	var b strings.Builder

	switch chatMode {
	case ChatModePlanning:
		b.WriteString("You are operating in planning mode: a read-only research assistant.\n\n")
		b.WriteString("You can:\n")
		b.WriteString("- Read files with read_file\n")
		b.WriteString("- List directory contents with list_directory\n")
		b.WriteString("- Search for paths with find_path\n\n")
		b.WriteString("You cannot:\n")
		b.WriteString("- Write, edit, delete, copy, or move any file\n")
		b.WriteString("- Create directories\n")
		b.WriteString("- Run shell commands\n")
		b.WriteString("- Spawn subagents\n\n")
		b.WriteString("Use your available tools to investigate and answer the user's question. ")
		b.WriteString("If the task requires making changes, say so rather than attempting a workaround.\n")
	default:
		b.WriteString("You are operating in write mode: a read/write agent that can modify the ")
		b.WriteString("working directory and run shell commands.\n\n")
		b.WriteString("You can:\n")
		b.WriteString("- Read, write, edit, delete, copy, and move files\n")
		b.WriteString("- Create directories and list directory contents\n")
		b.WriteString("- Search for paths with find_path\n")
		b.WriteString("- Run shell commands with the terminal tool\n")
		b.WriteString("- Spawn subagents for focused sub-tasks, sequentially or in parallel\n\n")
		b.WriteString("File editing guidance:\n")
		b.WriteString("- Prefer a targeted edit_file call with old_text over replacing a whole file\n")
		b.WriteString("- Only omit old_text when you genuinely intend to overwrite the entire file\n")
		b.WriteString("- Use create mode for new files, edit mode for existing ones\n\n")

		switch safetyMode {
		case SafetyModeYolo:
			b.WriteString("Safety mode is yolo: only explicitly blacklisted commands are blocked. ")
			b.WriteString("You do not need to ask before running shell commands, but still avoid ")
			b.WriteString("destructive operations that weren't requested.\n")
		default:
			b.WriteString("Safety mode is confirm: before running a command the validator flags as ")
			b.WriteString("needing confirmation, explain what it will do and wait for approval before ")
			b.WriteString("proceeding. Destructive filesystem operations (delete, overwrite) deserve the ")
			b.WriteString("same caution.\n")
		}
	}

	return b.String()
}
