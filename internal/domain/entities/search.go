package entities

// SearchEntryCollection is the entry type used for project records
const SearchEntryCollection = "Collection"

// SearchHit is one entry of a search response
type SearchHit struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// SearchResult is a page of search results
type SearchResult struct {
	Hits    int         `json:"hits"`
	Entries []SearchHit `json:"entry"`
}
