package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ShayCichocki/parley/internal/orchestrator"
	"github.com/ShayCichocki/parley/internal/tui"
)

// runChat runs one conversation in the interactive chat.
func runChat(cmd *cobra.Command) (retErr error) {
	// Logs go to the project log file; stderr output corrupts the display
	rt, err := newRuntime(cfg, runtimeOptions{repoLog: true})
	if err != nil {
		return err
	}
	defer rt.Close()
	rt.serveMetrics(metricsAddr)

	defer func() {
		if r := recover(); r != nil {
			retErr = fmt.Errorf("panic in chat: %v", r)
		}
	}()

	events := orchestrator.NewEventEmitter(64, rt.logger.Named("events"))
	orch := rt.newOrchestrator(orchestrator.WithEvents(events))

	program, _ := tui.NewChatProgram(orch)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	go tui.ForwardEvents(ctx, program, events.Events())

	rt.logger.Info("chat started",
		zap.String("conversation_id", orch.Conversation().Context().ConversationID))

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run chat: %w", err)
	}

	rt.logger.Info("chat finished",
		zap.Int("turns", orch.InteractionCount()),
		zap.Float64("success_rate", orch.SuccessRate()))
	return nil
}
