package searchtypes

import (
	"encoding/json"
	"testing"

	"github.com/standardbeagle/treesearch/internal/treebank"
)

func TestTreeMatchJSON(t *testing.T) {
	tree, tokens, high, err := treebank.ParseMatch(
		"(S (NP (DT the) (NN cat)) (VP (VBD sat)))", "(NP (DT the) (NN cat))")
	if err != nil {
		t.Fatalf("ParseMatch: %v", err)
	}
	m := TreeMatch{File: "a.mrg", SentNo: 3, Tree: tree, Tokens: tokens, Highlight: high}

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got map[string]interface{}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got["tree"] != "(S (NP (DT the) (NN cat)) (VP (VBD sat)))" {
		t.Errorf("unexpected tree %v", got["tree"])
	}
	if got["match"] != "(NP (DT the) (NN cat))" {
		t.Errorf("unexpected match %v", got["match"])
	}
	if got["sentno"] != float64(3) {
		t.Errorf("unexpected sentno %v", got["sentno"])
	}
}

func TestExtractedJSON_SentenceOnly(t *testing.T) {
	data, err := json.Marshal(Extracted{Sentence: "the cat sat"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `{"sentence":"the cat sat"}` {
		t.Errorf("unexpected JSON %s", data)
	}
}

func TestFileCountJSON_OmitsEmptyIndices(t *testing.T) {
	data, err := json.Marshal(FileCount{File: "a", Count: 2})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `{"file":"a","count":2}` {
		t.Errorf("unexpected JSON %s", data)
	}
}
