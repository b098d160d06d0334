// Package tui provides the terminal chat interface for parley.
//
// The chat shows each utterance with the feedback, commands and steps the
// pipeline produced for it. Orchestrator events drive the status line while
// a turn is being processed.
//
// Usage:
//
//	program, _ := tui.NewChatProgram(orch)
//	go tui.ForwardEvents(ctx, program, events.Events())
//	_, err := program.Run()
//
// Lines starting with a slash are local commands: /verbosity <level>,
// /clear and /quit. Up and down recall earlier lines.
package tui
