package yaml

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCredentialsParser_Parse_Valid(t *testing.T) {
	parser := NewCredentialsParser()
	yamlData := []byte(`user: admin
password: s3cr3t
`)

	creds, err := parser.Parse(yamlData)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if creds.User != "admin" {
		t.Errorf("User = %v, want admin", creds.User)
	}
	if creds.Password != "s3cr3t" {
		t.Errorf("Password = %v, want s3cr3t", creds.Password)
	}
}

func TestCredentialsParser_Parse_LegacyPasswdKey(t *testing.T) {
	parser := NewCredentialsParser()
	yamlData := []byte(`user: admin
passwd: old-style
`)

	creds, err := parser.Parse(yamlData)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if creds.Password != "old-style" {
		t.Errorf("Password = %v, want old-style", creds.Password)
	}
}

func TestCredentialsParser_Parse_PasswordWins(t *testing.T) {
	parser := NewCredentialsParser()
	yamlData := []byte(`user: admin
password: new
passwd: old
`)

	creds, err := parser.Parse(yamlData)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if creds.Password != "new" {
		t.Errorf("Password = %v, want new", creds.Password)
	}
}

func TestCredentialsParser_Parse_MissingUser(t *testing.T) {
	parser := NewCredentialsParser()
	yamlData := []byte(`password: s3cr3t
`)

	_, err := parser.Parse(yamlData)
	if err == nil {
		t.Error("Parse() should return error for missing user")
	}
	if err != nil && err.Error() != "auth file must have a user" {
		t.Errorf("Parse() error = %v, want 'auth file must have a user'", err)
	}
}

func TestCredentialsParser_Parse_InvalidYAML(t *testing.T) {
	parser := NewCredentialsParser()
	yamlData := []byte(`user: test
  invalid: [broken yaml
`)

	_, err := parser.Parse(yamlData)
	if err == nil {
		t.Error("Parse() should return error for invalid YAML")
	}
}

func TestCredentialsParser_Parse_RejectsCodeTags(t *testing.T) {
	parser := NewCredentialsParser()
	yamlData := []byte(`user: !!python/object/apply:os.system ["echo pwned"]
password: x
`)

	if _, err := parser.Parse(yamlData); err == nil {
		t.Error("Parse() should reject language-specific tags")
	}
}

func TestCredentialsParser_ParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.yaml")
	if err := os.WriteFile(path, []byte("user: admin\npassword: pw\n"), 0600); err != nil {
		t.Fatalf("failed to write auth file: %v", err)
	}

	creds, err := NewCredentialsParser().ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if creds.User != "admin" {
		t.Errorf("User = %v, want admin", creds.User)
	}
}

func TestCredentialsParser_ParseFile_Missing(t *testing.T) {
	if _, err := NewCredentialsParser().ParseFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("ParseFile() should fail for a missing file")
	}
}
