package config

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
database:
  dsn: "stats:stats@tcp(127.0.0.1:3306)/stats?parseTime=true"
redis:
  addr: "127.0.0.1:6379"
llm:
  provider: gigachat
  model: GigaChat
  gigachat:
    credentials: "Y2xpZW50OnNlY3JldA=="
query:
  languages: ["ru", "en"]
`

func newViper(t *testing.T, yaml string) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	require.NoError(t, v.ReadConfig(strings.NewReader(yaml)))
	return v
}

func TestDecodeAppliesDefaults(t *testing.T) {
	cfg, err := decode(newViper(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "gigachat", cfg.LLM.Provider)
	assert.Equal(t, "GIGACHAT_API_PERS", cfg.LLM.GigaChat.Scope)
	assert.Equal(t, []string{"ru", "en"}, cfg.Query.Languages)
	assert.Equal(t, 30, cfg.Query.TranslateTimeout)
	assert.Equal(t, 4, cfg.Queue.Workers)
	assert.Equal(t, "@every 1m", cfg.Queue.ReaperSpec)
}

func TestDecodeRejectsInvalid(t *testing.T) {
	v := newViper(t, sampleYAML)
	v.Set("llm.provider", "yandexgpt")
	_, err := decode(v)
	assert.Error(t, err)

	v = newViper(t, sampleYAML)
	v.Set("database.dsn", "")
	_, err = decode(v)
	assert.Error(t, err)

	v = newViper(t, sampleYAML)
	v.Set("logstash.enable", true)
	_, err = decode(v)
	assert.Error(t, err)
}
