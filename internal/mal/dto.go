package mal

type alternativeTitles struct {
	Synonyms []string `json:"synonyms"`
	En       string   `json:"en"`
	Ja       string   `json:"ja"`
}

type animeNode struct {
	ID                int               `json:"id"`
	Title             string            `json:"title"`
	AlternativeTitles alternativeTitles `json:"alternative_titles"`
	StartDate         string            `json:"start_date"`
}

type searchResponse struct {
	Data []struct {
		Node animeNode `json:"node"`
	} `json:"data"`
}

type userListResponse struct {
	Data []struct {
		Node animeNode `json:"node"`
	} `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
}
