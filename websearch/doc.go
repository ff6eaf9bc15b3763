// Package websearch queries a SearXNG-style search aggregator and turns its
// results into passages.
//
// The adapter never fails a caller's query: every problem talking to the
// aggregator (transport errors, timeouts, non-2xx responses, malformed
// bodies) is logged and reported through Outcome.Err with an empty hit list.
// Callers that only want hits can ignore Err entirely.
//
//	adapter, err := websearch.NewAdapter(ctx, websearch.DefaultConfig())
//	outcome := adapter.Search(ctx, "藜麦有哪些营养价值", websearch.Request{})
//	passages := websearch.ToPassages(outcome.Hits)
package websearch
