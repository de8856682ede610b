package hh

type Area struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type area struct {
	ID       string  `json:"id"`
	ParentID *string `json:"parent_id"`
	Name     string  `json:"name"`
	Areas    []area  `json:"areas"`
}
