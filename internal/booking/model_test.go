package booking

import "testing"

func TestPatientValidate(t *testing.T) {
	base := Patient{Name: "Chen Mei", NationalID: "A123456789", Gender: "F", Age: 34, Phone: "0912345678"}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid patient rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Patient)
	}{
		{"missing name", func(p *Patient) { p.Name = "" }},
		{"lowercase prefix", func(p *Patient) { p.NationalID = "a123456789" }},
		{"too short", func(p *Patient) { p.NationalID = "A12345678" }},
		{"too long", func(p *Patient) { p.NationalID = "A1234567890" }},
		{"letters in digits", func(p *Patient) { p.NationalID = "A12345678X" }},
		{"negative age", func(p *Patient) { p.Age = -1 }},
		{"age over limit", func(p *Patient) { p.Age = 121 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := base
			tc.mutate(&p)
			if err := p.Validate(); err == nil {
				t.Fatalf("expected rejection for %+v", p)
			}
		})
	}
}

func TestPatientValidateAgeBoundaries(t *testing.T) {
	for _, age := range []int{0, 120} {
		p := Patient{Name: "x", NationalID: "Z999999999", Age: age}
		if err := p.Validate(); err != nil {
			t.Fatalf("age %d should be accepted: %v", age, err)
		}
	}
}

func TestPatientValidateContactFieldsOptional(t *testing.T) {
	p := Patient{Name: "Lin Mei", NationalID: "A123456789", Age: 30}
	if err := p.Validate(); err != nil {
		t.Fatalf("patient without gender or phone rejected: %v", err)
	}
}
