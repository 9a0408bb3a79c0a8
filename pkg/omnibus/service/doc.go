// Package service turns a request/response/cancel protocol over an omnibus
// channel into managed, observable state.
//
// A service owns one listener on a channel of action.Action. Every request
// it handles is announced on the channel with the namespace's seven action
// types:
//
//	ns/request   a client asks for work
//	ns/cancel    a client cancels the running request
//	ns/started   the handler began
//	ns/next      the handler produced a value
//	ns/error     the handler failed; the service keeps running
//	ns/complete  the handler finished
//	ns/canceled  the handler was cancelled before finishing
//
// IsActive follows whether any request is in flight, and State folds every
// protocol action through a reducer.
//
//	counter, err := service.New(ch, service.Config[float64, float64, float64]{
//	    Namespace: "counter",
//	    Handler: func(_ context.Context, inc float64) (any, error) {
//	        return inc, nil
//	    },
//	    Reducer: func(acts service.ActionSet[float64, float64]) service.Reducer[float64] {
//	        return service.ReducerFunc[float64](func(n float64, a action.Action) float64 {
//	            if v, ok := acts.Next.Payload(a); ok {
//	                return n + v
//	            }
//	            return n
//	        })
//	    },
//	})
//	counter.Request(1)
//	counter.State().Get() // 1
package service
