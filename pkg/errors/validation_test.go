package errors

import (
	"testing"
)

func TestValidateComponentName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "queue0", false},
		{"valid with dash", "video-sink", false},
		{"valid with underscore", "my_tee", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 300)), true},
		{"dot", "src.out", true},
		{"bang", "a!b", true},
		{"space", "a b", true},
		{"quote", "a\"b", true},
		{"slash", "bin/src", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateComponentName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateComponentName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidTopology) {
				t.Errorf("error code = %v, want %v", GetCode(err), ErrCodeInvalidTopology)
			}
		})
	}
}

func TestValidateFactoryName(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"videotestsrc", false},
		{"x264enc", false},
		{"gl-sink", false},
		{"", true},
		{"-leading", true},
		{"has space", true},
		{"tee.", true},
	}

	for _, tt := range tests {
		err := ValidateFactoryName(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFactoryName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestValidatePortName(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"src", false},
		{"sink_0", false},
		{"src_%u", false},
		{"", true},
		{"a.b", true},
	}

	for _, tt := range tests {
		err := ValidatePortName(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePortName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestValidateIndent(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"", false},
		{"  ", false},
		{"\t", false},
		{"x", true},
		{"                    ", true},
	}

	for _, tt := range tests {
		err := ValidateIndent(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateIndent(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}
