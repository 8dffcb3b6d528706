package cv

import "testing"

func TestFirstJSONObject(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{
			name:  "bare object",
			input: `{"a":1}`,
			want:  `{"a":1}`,
			ok:    true,
		},
		{
			name:  "object wrapped in prose",
			input: "Here is the JSON you asked for:\n{\"a\":1}\nHope that helps!",
			want:  `{"a":1}`,
			ok:    true,
		},
		{
			name:  "code fence",
			input: "```json\n{\"a\": {\"b\": 2}}\n```",
			want:  `{"a": {"b": 2}}`,
			ok:    true,
		},
		{
			name:  "braces inside quoted strings ignored",
			input: `result: {"note":"uses {curly} braces","n":1} trailing`,
			want:  `{"note":"uses {curly} braces","n":1}`,
			ok:    true,
		},
		{
			name:  "escaped quote inside string",
			input: `{"note":"say \"hi\" {"}`,
			want:  `{"note":"say \"hi\" {"}`,
			ok:    true,
		},
		{
			name:  "first of two objects wins",
			input: `{"first":true} {"second":true}`,
			want:  `{"first":true}`,
			ok:    true,
		},
		{
			name:  "no object",
			input: "the model refused to answer",
			ok:    false,
		},
		{
			name:  "unbalanced open brace",
			input: `{"a":1`,
			ok:    false,
		},
		{
			name:  "empty input",
			input: "",
			ok:    false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := FirstJSONObject(tc.input)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if got != tc.want {
				t.Fatalf("span = %q, want %q", got, tc.want)
			}
		})
	}
}
