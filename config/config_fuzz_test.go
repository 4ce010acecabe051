package config

import "testing"

func FuzzParse(f *testing.F) {
	f.Add(sampleTOML)
	f.Add("")
	f.Add("[global]\nminParallelism = 1")
	f.Add("not even toml")

	f.Fuzz(func(t *testing.T, doc string) {
		// Parse must never panic, regardless of input.
		_, _ = Parse(doc)
	})
}

func FuzzParseByteSize(f *testing.F) {
	seeds := []string{"1024", "1GiB", "", "512MiB", "garbage", "-5B", "1.5GiB"}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, s string) {
		// ParseByteSize must never panic, regardless of input.
		_, _ = ParseByteSize(s)
	})
}
