package config

import (
	"bufio"
	"os"
	"strings"

	"github.com/sandeepkv93/tasksync/internal/notion"
)

const envToken = "TASKSYNC_NOTION_TOKEN"

// CredentialSource resolves Notion credentials on every call, so a token
// written to the environment or the token file after start-up is picked up.
type CredentialSource struct {
	notion NotionConfig
}

func (c *Config) CredentialSource() *CredentialSource {
	return &CredentialSource{notion: c.Notion}
}

// Credentials returns the current credentials and whether they are usable.
func (s *CredentialSource) Credentials() (notion.Credentials, bool) {
	creds := notion.Credentials{
		Token:      s.token(),
		DatabaseID: strings.TrimSpace(s.notion.DatabaseID),
		APIVersion: s.notion.APIVersion,
	}
	if v, ok := getEnvString("TASKSYNC_DATABASE_ID"); ok {
		creds.DatabaseID = v
	}
	return creds, creds.Usable()
}

// token prefers the environment, then the config value, then the first line
// of the token file.
func (s *CredentialSource) token() string {
	if v, ok := getEnvString(envToken); ok {
		return v
	}
	if v := strings.TrimSpace(s.notion.Token); v != "" {
		return v
	}
	if s.notion.TokenFile == "" {
		return ""
	}
	f, err := os.Open(s.notion.TokenFile)
	if err != nil {
		return ""
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	if sc.Scan() {
		return strings.TrimSpace(sc.Text())
	}
	return ""
}
