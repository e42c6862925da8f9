package utils

import "testing"

type contactInput struct {
	Phone string `validate:"phone"`
}

type sampleInput struct {
	ChatID  string        `validate:"required"`
	Kind    string        `validate:"oneof=text|image|custom"`
	Note    string        `validate:"max=5"`
	Contact *contactInput `json:"contact"`
}

func TestValidateStruct(t *testing.T) {
	cases := []struct {
		name    string
		in      sampleInput
		wantErr bool
	}{
		{"valid", sampleInput{ChatID: "c1", Kind: "text"}, false},
		{"missing required", sampleInput{Kind: "text"}, true},
		{"blank required", sampleInput{ChatID: "   "}, true},
		{"oneof empty allowed", sampleInput{ChatID: "c1"}, false},
		{"oneof mismatch", sampleInput{ChatID: "c1", Kind: "video"}, true},
		{"max exceeded", sampleInput{ChatID: "c1", Note: "toolong"}, true},
		{"nested phone ok", sampleInput{ChatID: "c1", Contact: &contactInput{Phone: "+919876543210"}}, false},
		{"nested phone bad", sampleInput{ChatID: "c1", Contact: &contactInput{Phone: "12ab"}}, true},
	}
	for _, c := range cases {
		err := ValidateStruct(&c.in)
		if (err != nil) != c.wantErr {
			t.Fatalf("%s: got err=%v, wantErr=%v", c.name, err, c.wantErr)
		}
	}
}
