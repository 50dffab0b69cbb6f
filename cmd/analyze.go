package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/praveenlokku/EasyApply/internal/ai/service"
	"github.com/praveenlokku/EasyApply/internal/extract"
	"github.com/praveenlokku/EasyApply/internal/logger"
)

const (
	PromptMatch      = "Find matching jobs"
	PromptDumpToFile = "Dump result to file"
	PromptExit       = "Exit"
)

var errExit = errors.New("exit requested")

var analyzePrompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptMatch, PromptDumpToFile, PromptExit},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <resume-file>",
	Short: "Analyze a resume file and print the result",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		analyze(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringP("job-description", "J", "", "file with a job description to score the resume against")
	analyzeCmd.Flags().BoolP("auto-approve", "y", false, "print the result and exit without the action prompt")
}

func analyze(cmd *cobra.Command, resumePath string) {
	ctx := context.Background()

	log, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		panic(fmt.Sprintf("creating a logger: %s", err))
	}

	config, err := getConfig()
	if err != nil {
		log.Fatal("getting a config", zap.Error(err))
	}

	svc := newService(ctx, config, log)

	text, err := resumeText(ctx, svc, resumePath, log)
	if err != nil {
		log.Fatal("reading resume", zap.String("file", resumePath), zap.Error(err))
	}

	jobDescription, err := jobDescriptionText(cmd)
	if err != nil {
		log.Fatal("reading job description", zap.Error(err))
	}

	analysis := svc.Analyze(ctx, text, jobDescription)

	pretty, _ := json.MarshalIndent(analysis, "", "  ")
	fmt.Println(string(pretty))

	if analysis.Notice != "" {
		log.Warn(analysis.Notice, zap.String("service", string(analysis.ServiceUsed)))
	}

	if cmd.Flag("auto-approve").Value.String() == "true" {
		return
	}

	for {
		_, action, err := analyzePrompt.Run()
		if err != nil {
			log.Fatal("exiting", zap.Error(err))
		}

		if err := handleAnalyzeAction(ctx, action, svc, text, analysis, log); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			log.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAnalyzeAction(ctx context.Context, action string, svc *service.Service, resumeText string, analysis *service.Analysis, log *zap.Logger) error {
	switch action {
	case PromptMatch:
		matches := svc.Match(ctx, resumeText)
		pretty, _ := json.MarshalIndent(matches, "", "  ")
		fmt.Println(string(pretty))
		return nil
	case PromptDumpToFile:
		filename, err := dumpToTmpFile(analysis)
		if err != nil {
			return fmt.Errorf("dump result to file: %w", err)
		}
		log.Info("dumped result to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// resumeText extracts text from the file, falling back to the AI extraction
// chain for formats the local extractors cannot handle.
func resumeText(ctx context.Context, svc *service.Service, path string, log *zap.Logger) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	mimeType := mimeTypeForFile(path)

	text, err := extract.Text(data, mimeType)
	if err == nil {
		return text, nil
	}

	log.Debug("local extraction failed, using AI chain", zap.String("mime_type", mimeType), zap.Error(err))

	extraction, err := svc.ExtractText(ctx, data, mimeType)
	if err != nil {
		return "", err
	}
	return extraction.Text, nil
}

func jobDescriptionText(cmd *cobra.Command) (string, error) {
	path := cmd.Flag("job-description").Value.String()
	if path == "" {
		return "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func mimeTypeForFile(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extract.MimePDF
	case ".docx":
		return extract.MimeDocx
	default:
		return extract.MimePlainText
	}
}

func dumpToTmpFile(analysis *service.Analysis) (string, error) {
	f, err := os.CreateTemp("", app+"-analysis-*.json")
	if err != nil {
		return "", err
	}
	defer f.Close()

	pretty, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return "", err
	}

	if _, err := f.Write(pretty); err != nil {
		return "", err
	}

	return f.Name(), nil
}
