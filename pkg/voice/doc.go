// Package voice runs one push-to-talk conversation turn at a time.
//
// A turn records the microphone, transcribes the recording, classifies the
// transcript, runs the matching action through the router and speaks the
// reply back in Taigi:
//
//	idle → recording → transcribing → thinking → translating → speaking → idle
//
// Every failure returns the turn to idle. The Orchestrator owns the single
// application state record; each change is applied through the pure Reduce
// function and published to observers as an immutable Snapshot.
//
// # Usage
//
//	orch, err := voice.NewOrchestrator(voice.Deps{
//	    Keys:        keyStore,
//	    Capture:     audio.NewFFmpegCapture(audio.CaptureConfig{}),
//	    Player:      audio.NewPlayer(audio.FFplay{}, logger),
//	    Transcriber: stt.NewWhisper(),
//	    Classifier:  intent.NewOpenAI(),
//	    Router:      assistant.NewRouter(loader, memos),
//	    Feedback:    voice.NewFeedback(translator, taigi, logger),
//	    Memos:       memos,
//	}, voice.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//
//	go orch.Run(ctx, loader.AuthFailures())
//	orch.Subscribe(voice.ObserverFunc(func(s voice.Snapshot) {
//	    fmt.Println(s.Prompt, s.Status)
//	}))
//
//	orch.Start(ctx) // button down
//	orch.Stop(ctx)  // button up, runs the rest of the turn
//
// # Latency Metrics
//
// Each completed turn records per-stage latency:
//
//	m := orch.Metrics().Average()
//	fmt.Println(m.FormatLatency())
package voice
