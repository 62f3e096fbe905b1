package config

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dooshek/honey/internal/fileops"
	"github.com/dooshek/honey/internal/logger"
	"github.com/dooshek/honey/internal/prompt"
	"github.com/dooshek/honey/internal/types"
	"github.com/fatih/color"
)

// RunWizard asks for the non-secret settings and writes honey.yaml.
// API keys and bucket credentials stay in the environment.
func RunWizard(fileOps fileops.FileOps, in io.Reader, out io.Writer) error {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	bold.Fprintln(out, "\n🍯 Welcome to the honey configuration wizard!")
	fmt.Fprintln(out, "\nCredentials are read from the environment (or a .env file) and are never saved here.")

	p := prompt.New(in, out)
	defaults := &types.Config{}

	for {
		llmProvider, err := askChoice(p, out, "Text generation provider", defaults.GetLLMConfig().Provider,
			string(types.ProviderOpenAI), string(types.ProviderGroq))
		if err != nil {
			return err
		}
		llmModel, err := p.Ask("Text generation model", (&types.Config{LLM: types.LLMConfig{Provider: llmProvider}}).GetLLMConfig().Model)
		if err != nil {
			return err
		}

		ttsProvider, err := askChoice(p, out, "Speech provider", defaults.GetTTSConfig().Provider,
			string(types.TTSProviderElevenLabs), string(types.TTSProviderOpenAI))
		if err != nil {
			return err
		}
		format, err := askChoice(p, out, "Audio format", defaults.GetTTSConfig().Format, "mp3", "ogg", "opus", "wav")
		if err != nil {
			return err
		}

		backend, err := askChoice(p, out, "Audio storage", defaults.GetStorageConfig().Backend,
			string(types.StorageS3), string(types.StorageNATS), string(types.StorageLocal))
		if err != nil {
			return err
		}
		prefix, err := p.Ask("Storage key prefix", defaults.GetStorageConfig().Prefix)
		if err != nil {
			return err
		}

		storeBackend, err := askChoice(p, out, "Record store", defaults.GetStoreConfig().Backend,
			string(types.StoreJSON), string(types.StoreBolt))
		if err != nil {
			return err
		}

		timeout, err := askInt(p, out, "HTTP timeout in seconds", defaults.GetHTTPTimeoutSeconds())
		if err != nil {
			return err
		}

		config := &types.Config{
			LLM: types.LLMConfig{
				Provider: llmProvider,
				Model:    llmModel,
			},
			TTS: types.TTSConfig{
				Provider: ttsProvider,
				Format:   format,
			},
			Storage: types.StorageConfig{
				Backend: backend,
				Prefix:  prefix,
			},
			Store: types.StoreConfig{
				Backend: storeBackend,
			},
			HTTPTimeoutSeconds: timeout,
		}

		yellow.Fprintf(out, "\n%s/%s text, %s speech (%s), %s storage under %q, %s record store\n",
			llmProvider, llmModel, ttsProvider, format, backend, prefix, storeBackend)

		confirm, err := p.Confirm("\nSave this configuration?")
		if err != nil {
			logger.Error("Failed to read input", err)
			return err
		}
		if !confirm {
			fmt.Fprintln(out, "\nOK, let's try again.")
			continue
		}

		if err := SaveConfig(fileOps, config); err != nil {
			logger.Error("Failed to save config", err)
			return err
		}

		green.Fprintln(out, "\n✅ Configuration saved successfully!")
		return nil
	}
}

func askChoice(p *prompt.Prompter, out io.Writer, question, def string, choices ...string) (string, error) {
	for {
		answer, err := p.Ask(fmt.Sprintf("%s (%s)", question, strings.Join(choices, "/")), def)
		if err != nil {
			return "", err
		}
		answer = strings.ToLower(answer)
		for _, c := range choices {
			if answer == c {
				return answer, nil
			}
		}
		color.New(color.FgRed).Fprintf(out, "Unknown choice %q\n", answer)
	}
}

func askInt(p *prompt.Prompter, out io.Writer, question string, def int) (int, error) {
	for {
		answer, err := p.Ask(question, strconv.Itoa(def))
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n > 0 {
			return n, nil
		}
		color.New(color.FgRed).Fprintf(out, "Expected a positive number, got %q\n", answer)
	}
}
