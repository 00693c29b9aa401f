package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nupi-ai/whisper-runtime/internal/native"
	"github.com/nupi-ai/whisper-runtime/internal/stubengine"
	"github.com/nupi-ai/whisper-runtime/whisper"
)

var opts struct {
	modelPath   string
	language    string
	translate   bool
	threads     uint
	temperature float32
	beamSize    int
	diarize     bool
	vad         bool
	vadModel    string
	shared      bool
	parallel    int
	stub        bool
	showTokens  bool
}

func main() {
	root := &cobra.Command{
		Use:          "transcribe [flags] file.wav [file.wav...]",
		Short:        "Transcribe 16 kHz mono WAV files with a local Whisper model",
		Args:         cobra.MinimumNArgs(1),
		RunE:         run,
		SilenceUsage: true,
	}

	root.Flags().StringVarP(&opts.modelPath, "model", "m", "", "path to the ggml model file (required)")
	root.Flags().StringVarP(&opts.language, "language", "l", "auto", "transcription language, or auto")
	root.Flags().BoolVar(&opts.translate, "translate", false, "translate to English")
	root.Flags().UintVarP(&opts.threads, "threads", "t", 0, "decode threads (0 = all CPUs)")
	root.Flags().Float32Var(&opts.temperature, "temperature", 0, "sampling temperature")
	root.Flags().IntVar(&opts.beamSize, "beam-size", 1, "beam size (1 = greedy)")
	root.Flags().BoolVar(&opts.diarize, "diarize", false, "enable tinydiarize speaker turns")
	root.Flags().BoolVar(&opts.vad, "vad", false, "enable voice activity detection")
	root.Flags().StringVar(&opts.vadModel, "vad-model", "", "path to the VAD model")
	root.Flags().BoolVar(&opts.shared, "shared", false, "use one shared session instead of isolated sessions")
	root.Flags().IntVarP(&opts.parallel, "parallel", "p", 2, "isolated sessions running in parallel")
	root.Flags().BoolVar(&opts.stub, "stub", false, "use the deterministic stub engine")
	root.Flags().BoolVar(&opts.showTokens, "tokens", false, "print token details per segment")
	_ = root.MarkFlagRequired("model")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	model, err := openModel()
	if err != nil {
		return err
	}
	defer model.Close()

	params, err := buildParameters(model)
	if err != nil {
		return err
	}

	if opts.shared {
		return runShared(cmd, model, params, args)
	}
	return runIsolated(cmd, model, params, args)
}

func openModel() (*whisper.Model, error) {
	if opts.stub {
		return whisper.OpenModel(opts.modelPath, whisper.WithEngine(stubengine.New()))
	}
	if !native.Available() {
		fmt.Fprintln(os.Stderr, "warning: native backend not built, using stub engine")
		return whisper.OpenModel(opts.modelPath, whisper.WithEngine(stubengine.New()))
	}
	return whisper.OpenModel(opts.modelPath)
}

func buildParameters(model *whisper.Model) (*whisper.Parameters, error) {
	strategy := whisper.SamplingGreedy
	if opts.beamSize > 1 {
		strategy = whisper.SamplingBeamSearch
	}

	params, err := whisper.NewParameters(model, strategy, func(p *whisper.Parameters) {
		p.SetTranslate(opts.translate)
		p.SetTemperature(opts.temperature)
		p.SetTokenTimestamps(opts.showTokens)
		if opts.threads > 0 {
			p.SetThreads(opts.threads)
		}
		if opts.beamSize > 1 {
			p.SetBeamSize(opts.beamSize)
		}
		if opts.diarize {
			p.SetDiarize(true)
		}
		if opts.vad {
			p.SetVAD(true)
			p.SetVADModelPath(opts.vadModel)
		}
	})
	if err != nil {
		return nil, err
	}

	if err := params.SetLanguage(opts.language); err != nil {
		return nil, fmt.Errorf("language %q: %w", opts.language, err)
	}
	return params, nil
}

// runShared feeds the files through the model's shared buffer sequentially,
// retrying when it is contended. The segment cursor is monotonic and never
// rewinds, so every file gets a fresh session over the shared buffer.
func runShared(cmd *cobra.Command, model *whisper.Model, params *whisper.Parameters, files []string) error {
	for _, file := range files {
		samples, err := loadWAV(file)
		if err != nil {
			return err
		}

		session, err := whisper.NewSharedSession(model, params)
		if err != nil {
			return err
		}
		if err := whisper.ProcessWithRetry(cmd.Context(), session, samples, nil, nil, nil, whisper.RetryOptions{}); err != nil {
			session.Close()
			return fmt.Errorf("%s: %w", file, err)
		}
		output, err := drainSegments(session.NextSegment)
		session.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		printResult(cmd, file, output)
	}
	return nil
}

// runIsolated transcribes the files through independent isolated sessions
// with bounded parallelism.
func runIsolated(cmd *cobra.Command, model *whisper.Model, params *whisper.Parameters, files []string) error {
	outputs := make([]string, len(files))

	g, _ := errgroup.WithContext(cmd.Context())
	g.SetLimit(opts.parallel)

	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			samples, err := loadWAV(file)
			if err != nil {
				return err
			}

			session, err := whisper.NewIsolatedSession(model, params)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			defer session.Close()

			if err := session.Process(samples, nil, nil, nil); err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			output, err := drainSegments(session.NextSegment)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			outputs[i] = output
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, file := range files {
		printResult(cmd, file, outputs[i])
	}
	return nil
}

func drainSegments(next func() (whisper.Segment, error)) (string, error) {
	var b strings.Builder
	for {
		segment, err := next()
		if errors.Is(err, io.EOF) {
			return b.String(), nil
		}
		if err != nil {
			return "", err
		}
		fmt.Fprintln(&b, segment.String())
		if opts.showTokens {
			for _, token := range segment.Tokens {
				fmt.Fprintf(&b, "    %6d %-20q p=%.3f\n", token.Id, token.Text, token.P)
			}
		}
	}
}

func printResult(cmd *cobra.Command, file, output string) {
	fmt.Fprintf(cmd.OutOrStdout(), "== %s\n%s", file, output)
}
