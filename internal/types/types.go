package types

// CodeBundle is the structured result of parsing the model's raw output:
// one text field per generated file, empty when the model omitted the block.
type CodeBundle struct {
	HTML string `json:"html"`
	CSS  string `json:"css"`
	JS   string `json:"js"`
}
