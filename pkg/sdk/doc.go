// Package notesearch embeds the notesearch note search and AI assist services
// in a Go program, without the HTTP layer.
//
// Search runs against Elasticsearch or OpenSearch; AI assist calls either the
// AI workers or an OpenAI-compatible provider and is metered per user per day.
//
//	client, _ := notesearch.New(ctx,
//	    notesearch.WithElasticsearch("http://localhost:9200"),
//	    notesearch.WithIndex("notes"),
//	    notesearch.WithAIWorkers(suggestURL, organizeURL, editURL, secret),
//	    notesearch.WithQuota(20000, 200),
//	)
//	defer client.Close()
//
//	page, _ := client.Search(ctx, notesearch.SearchRequest{
//	    Query:   "weekly plan",
//	    Filters: []notesearch.Filter{notesearch.Match("status", "active")},
//	    Sort:    []notesearch.Sort{notesearch.Desc("createdAt")},
//	    Limit:   10,
//	})
//	s, _ := client.Suggest(ctx, "user-1", noteText)
package notesearch
