// Package orchestrator sequences one conversational turn.
//
// For each input the orchestrator:
//   - Resolves short references against the conversation and records the turn
//   - Classifies the text, stopping with a clarification question when the
//     intent is ambiguous
//   - Runs the steps listed for the intent category (decompose, requirements,
//     spec, plan, translate, feedback), skipping steps whose input is missing
//   - Renders feedback and returns the conversation to idle, even on failure
//
// Collaborators are consumed through small interfaces so hosts can swap in
// their own extractor, generator, planner, translator or renderer.
//
// Example usage:
//
//	orch := orchestrator.New(orchestrator.WithConfig(cfg))
//	res := orch.Process("kullanici API olustur")
//	fmt.Println(res.Feedback.Content)
package orchestrator
