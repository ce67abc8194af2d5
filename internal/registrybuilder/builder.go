// Package registrybuilder assembles a *agent.ToolRegistry for a chat mode
// and safety mode, wiring the concrete file and terminal tool executors.
// Subagent meta-tools are composed in separately by the agent builder so a
// fresh recursion-depth counter and quota handle can be injected per agent.
package registrybuilder

import (
	"fmt"

	"github.com/corerun/agentcore/internal/agent"
	"github.com/corerun/agentcore/internal/tools/files"
	"github.com/corerun/agentcore/internal/tools/terminal"
)

// Options parameterises registry construction.
type Options struct {
	ChatMode   agent.ChatMode
	SafetyMode agent.SafetyMode
	Workspace  string
	Tools      agent.ToolLimits
	Terminal   agent.TerminalConfig
	Confirm    terminal.ConfirmFunc
}

// Build returns a ToolRegistry for the given options. In ChatModePlanning it
// registers exactly read_file, list_directory, find_path. In ChatModeWrite
// it registers every file tool plus terminal.
func Build(opts Options) (*agent.ToolRegistry, error) {
	registry := agent.NewToolRegistry()

	fileCfg := files.Config{
		Workspace:     opts.Workspace,
		MaxReadBytes:  opts.Tools.MaxFileReadSize,
		MaxWriteBytes: 0,
	}

	readTool, err := files.NewReadTool(fileCfg)
	if err != nil {
		return nil, fmt.Errorf("build read_file: %w", err)
	}
	listTool, err := files.NewListTool(fileCfg)
	if err != nil {
		return nil, fmt.Errorf("build list_directory: %w", err)
	}
	findTool, err := files.NewFindTool(fileCfg)
	if err != nil {
		return nil, fmt.Errorf("build find_path: %w", err)
	}
	registry.Register(readTool)
	registry.Register(listTool)
	registry.Register(findTool)

	switch opts.ChatMode {
	case agent.ChatModePlanning:
		return registry, nil
	case agent.ChatModeWrite:
		// fall through to register the mutating and process tools below
	default:
		return nil, fmt.Errorf("unknown chat_mode %q", opts.ChatMode)
	}

	writeTool, err := files.NewWriteTool(fileCfg)
	if err != nil {
		return nil, fmt.Errorf("build write_file: %w", err)
	}
	editTool, err := files.NewEditTool(fileCfg)
	if err != nil {
		return nil, fmt.Errorf("build edit_file: %w", err)
	}
	deleteTool, err := files.NewDeleteTool(fileCfg)
	if err != nil {
		return nil, fmt.Errorf("build delete_path: %w", err)
	}
	copyTool, err := files.NewCopyTool(fileCfg)
	if err != nil {
		return nil, fmt.Errorf("build copy_path: %w", err)
	}
	moveTool, err := files.NewMoveTool(fileCfg)
	if err != nil {
		return nil, fmt.Errorf("build move_path: %w", err)
	}
	mkdirTool, err := files.NewMkdirTool(fileCfg)
	if err != nil {
		return nil, fmt.Errorf("build create_directory: %w", err)
	}
	registry.Register(writeTool)
	registry.Register(editTool)
	registry.Register(deleteTool)
	registry.Register(copyTool)
	registry.Register(moveTool)
	registry.Register(mkdirTool)

	termTool, err := terminal.New(opts.Terminal, opts.SafetyMode, opts.Workspace, opts.Confirm)
	if err != nil {
		return nil, fmt.Errorf("build terminal: %w", err)
	}
	registry.Register(termTool)

	return registry, nil
}
