// Package relayout keeps a diagram laid out while its inputs change.
//
// An [Orchestrator] owns the current diagram of one session. It rebuilds
// whenever the schema is replaced ([Orchestrator.SetSchema]) or a size is
// measured in its registry, runs the pipeline over immutable snapshots and
// publishes the result to subscribers.
//
// # States
//
//	Idle --trigger--> Building --done--> LaidOut --published--> Idle
//
// Triggers that arrive while a build runs mark the orchestrator dirty and
// cause exactly one more build. [Orchestrator.Run] coalesces bursts of
// triggers, such as the first paint measuring every table, through a
// one-slot kick channel and a short settle window, so a burst yields a
// single build.
//
// # Highlights
//
// Highlighted edges are kept as a set of edge ids. Edge ids are pure
// functions of schema ids, so the set survives relayouts; changing it
// republishes the current diagram without a new layout.
//
// # Usage
//
//	o, err := relayout.New(reg, runner, pipeline.Options{})
//	if err != nil {
//	    return err
//	}
//	defer o.Close()
//	o.Subscribe(func(d diagram.Diagram) { send(d) })
//	o.SetSchema(db)
//	go o.Run(ctx)
package relayout
