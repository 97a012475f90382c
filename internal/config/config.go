package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port     string
		LogLevel string
	}
	LLM struct {
		APIKey     string
		BaseURL    string
		Model      string
		SlideModel string
	}
	Present struct {
		AdvanceDelayMs int
		DefaultSlides  int
		MaxSlides      int
		ContinuePhrase string
	}
	Status struct {
		URL         string
		ReconnectMs int
		Secret      string
	}
	History struct {
		DBPath     string
		MaxRecords int
	}
	Speech struct {
		WordsPerMinute int
	}
}

func Load() Config {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("llm.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("llm.model", "gemini-1.5-flash")
	v.SetDefault("llm.slide_model", "gemini-2.5-flash-lite")

	v.SetDefault("present.advance_delay_ms", 1500)
	v.SetDefault("present.default_slides", 6)
	v.SetDefault("present.max_slides", 12)
	v.SetDefault("present.continue_phrase", "Now, where were we. Continuing with the presentation.")

	v.SetDefault("status.url", "ws://localhost:8080/ws")
	v.SetDefault("status.reconnect_ms", 3000)

	v.SetDefault("history.db_path", "./data/podium.db")
	v.SetDefault("history.max_records", 20)

	v.SetDefault("speech.words_per_minute", 160)

	// Map envs
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.log_level", "LOG_LEVEL")

	v.BindEnv("llm.api_key", "GOOGLE_API_KEY")
	v.BindEnv("llm.base_url", "LLM_BASE_URL")
	v.BindEnv("llm.model", "LLM_MODEL")
	v.BindEnv("llm.slide_model", "LLM_SLIDE_MODEL")

	v.BindEnv("present.advance_delay_ms", "PRESENT_ADVANCE_DELAY_MS")
	v.BindEnv("present.default_slides", "PRESENT_DEFAULT_SLIDES")
	v.BindEnv("present.max_slides", "PRESENT_MAX_SLIDES")
	v.BindEnv("present.continue_phrase", "PRESENT_CONTINUE_PHRASE")

	v.BindEnv("status.url", "STATUS_URL")
	v.BindEnv("status.reconnect_ms", "STATUS_RECONNECT_MS")
	v.BindEnv("status.secret", "STATUS_SECRET")

	v.BindEnv("history.db_path", "HISTORY_DB_PATH")
	v.BindEnv("history.max_records", "HISTORY_MAX_RECORDS")

	v.BindEnv("speech.words_per_minute", "SPEECH_WORDS_PER_MINUTE")

	var c Config
	c.Server.Port = toString(v.Get("server.port"))
	c.Server.LogLevel = v.GetString("server.log_level")

	c.LLM.APIKey = v.GetString("llm.api_key")
	c.LLM.BaseURL = v.GetString("llm.base_url")
	c.LLM.Model = v.GetString("llm.model")
	c.LLM.SlideModel = v.GetString("llm.slide_model")

	c.Present.AdvanceDelayMs = v.GetInt("present.advance_delay_ms")
	c.Present.DefaultSlides = v.GetInt("present.default_slides")
	c.Present.MaxSlides = v.GetInt("present.max_slides")
	c.Present.ContinuePhrase = v.GetString("present.continue_phrase")

	c.Status.URL = v.GetString("status.url")
	c.Status.ReconnectMs = v.GetInt("status.reconnect_ms")
	c.Status.Secret = v.GetString("status.secret")

	c.History.DBPath = v.GetString("history.db_path")
	c.History.MaxRecords = v.GetInt("history.max_records")

	c.Speech.WordsPerMinute = v.GetInt("speech.words_per_minute")

	log.Printf("config loaded: port=%s model=%s advance_delay=%dms", c.Server.Port, c.LLM.Model, c.Present.AdvanceDelayMs)
	return c
}

func toString(v any) string { return fmt.Sprint(v) }
