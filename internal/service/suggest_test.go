package service

import (
	"reflect"
	"testing"
)

func TestSuggestMetadata(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		language  string
		wantTitle string
		wantTags  []string
		wantDesc  string
	}{
		{
			name:      "js function name and api tag",
			code:      "// load the user list\nasync function loadUsers() {\n  const res = await fetch('/api/users')\n}",
			language:  "javascript",
			wantTitle: "loadUsers",
			wantTags:  []string{"javascript", "api", "async"},
			wantDesc:  "load the user list",
		},
		{
			name:      "react hooks",
			code:      "const Counter = () => {\n  const [n, setN] = useState(0)\n}",
			language:  "javascript",
			wantTitle: "Counter",
			wantTags:  []string{"javascript", "hooks"},
		},
		{
			name:      "python def with comment",
			code:      "# parse the csv export\ndef parse_rows(path):\n    import pandas as pd",
			language:  "python",
			wantTitle: "parse_rows",
			wantTags:  []string{"python", "data"},
			wantDesc:  "parse the csv export",
		},
		{
			name:      "go func with http",
			code:      "func handleIndex(w http.ResponseWriter, r *http.Request) {}",
			language:  "go",
			wantTitle: "handleIndex",
			wantTags:  []string{"go", "api"},
		},
		{
			name:      "unknown language falls back",
			code:      "SELECT * FROM users;",
			language:  "sql",
			wantTitle: "Code Snippet",
			wantTags:  []string{"sql"},
		},
		{
			name:      "no identifier falls back",
			code:      "42 + 1",
			language:  "python",
			wantTitle: "Code Snippet",
			wantTags:  []string{"python"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SuggestMetadata(tt.code, tt.language)
			if got.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", got.Title, tt.wantTitle)
			}
			if !reflect.DeepEqual(got.Tags, tt.wantTags) {
				t.Errorf("Tags = %v, want %v", got.Tags, tt.wantTags)
			}
			if got.Description != tt.wantDesc {
				t.Errorf("Description = %q, want %q", got.Description, tt.wantDesc)
			}
		})
	}
}
