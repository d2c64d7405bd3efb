// Package loader fetches restoration data from the ladder site's REST API.
//
// Client implements nav.Loader. Every load issues one GET request and hands
// the raw JSON body to a Sink; rendering the payload is the sink's business.
//
//	client := loader.New("https://ladder.example.com",
//	    loader.WithTimeout(10*time.Second),
//	    loader.WithSink(loader.SinkFunc(func(ctx context.Context, r loader.Result) {
//	        render(r.Resource, r.Body)
//	    })),
//	)
//	engine := nav.New(tree, nav.WithLoader(client))
//
// Failures carry registry codes: N101 when the API cannot be reached, N102
// for 401 Unauthorized (the engine turns it into a re-authentication prompt)
// and N103 for any other unexpected response.
package loader
