// Package stream is the minimal push-stream primitive the channel is built on.
//
// A Stream is lazy: nothing happens until Subscribe is called, and every
// subscriber gets its own run of the producer. Producers push through a Sink,
// which enforces the grammar Next* (Error | Complete) and drops anything
// delivered after the subscription is closed.
//
// Streams are not goroutine-safe by themselves. A channel serializes all of
// its stream work through an Executor; producers that run on other
// goroutines hand their notifications to a Scheduler instead of calling the
// sink directly.
//
// Basic usage:
//
//	s := stream.Of(1, 2, 3)
//	sub := s.Subscribe(stream.Observer[int]{
//	    Next:     func(v int) { fmt.Println(v) },
//	    Complete: func() { fmt.Println("done") },
//	})
//	defer sub.Unsubscribe()
package stream
