// Package searchkit is an embedded Go client that builds authorization-aware
// search queries in process and runs them against Elasticsearch.
//
// The client needs an Elasticsearch address. A Redis address enables label
// filters, and an Embedder enables the vector clause of text searches.
//
//	client, _ := searchkit.New(ctx,
//	    searchkit.WithElasticsearch("http://localhost:9200"),
//	    searchkit.WithRedis("localhost:6379", ""),
//	    searchkit.WithIndex("issues", "gitlab-issues"),
//	)
//	defer client.Close()
//
//	page, _ := client.Search("issues").
//	    As(searchkit.User{ID: 7}).
//	    Query("crash on start").
//	    Scope(searchkit.Scope{Level: "project", ProjectIDs: []int64{42}}).
//	    Option("label_names", []string{"bug"}).
//	    First(20).
//	    Do(ctx)
//
//	next, _ := client.Search("issues").As(searchkit.User{ID: 7}).
//	    Query("crash on start").
//	    Scope(searchkit.Scope{Level: "project", ProjectIDs: []int64{42}}).
//	    After(page.PageInfo.EndCursor).
//	    Do(ctx)
//
// Entity options are the same keys the HTTP API accepts in its request body.
package searchkit
