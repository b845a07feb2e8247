package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	stegano "github.com/yyyoichi/stegano_zero"
	"github.com/yyyoichi/stegano_zero/internal/imageio"
	"github.com/yyyoichi/stegano_zero/quality"
)

const usage = "usage: stegano <encode|decode|capacity|analyze> [flags]"

var errUsage = errors.New(usage)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		log.Fatal().Err(err).Msg("stegano failed")
	}
}

func initLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}
	logger := zerolog.New(output).Level(level).With().Timestamp().Str("app", "stegano").Logger()
	log.Logger = logger
	return logger
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) < 1 {
		return errUsage
	}
	switch args[0] {
	case "encode":
		return runEncode(ctx, args[1:], stdout, stderr)
	case "decode":
		return runDecode(ctx, args[1:], stdout, stderr)
	case "capacity":
		return runCapacity(args[1:], stdout, stderr)
	case "analyze":
		return runAnalyze(args[1:], stdout, stderr)
	}
	return fmt.Errorf("%w: unknown subcommand %q", errUsage, args[0])
}

// common flags of every subcommand
type commonFlags struct {
	config *string
	input  *string
}

func newFlagSet(name string, stderr io.Writer) (*flag.FlagSet, commonFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs, commonFlags{
		config: fs.String("config", "", "TOML config file"),
		input:  fs.String("input", "", "input image file (required)"),
	}
}

func setup(cf commonFlags, stderr io.Writer) (config, zerolog.Logger, error) {
	cfg, err := loadConfig(*cf.config)
	if err != nil {
		return config{}, zerolog.Nop(), err
	}
	return cfg, initLogger(stderr, cfg.LogLevel), nil
}

func runEncode(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, cf := newFlagSet("encode", stderr)
	secret := fs.String("secret", "", "secret the key is derived from (required)")
	output := fs.String("output", "", "output steganogram: .png, .bmp or .tiff (required)")
	text := fs.String("text", "", "text to hide")
	payloadFile := fs.String("payload", "", "file to hide, instead of -text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *cf.input == "" || *output == "" || *secret == "" {
		fs.PrintDefaults()
		return fmt.Errorf("%w: encode needs -input, -output and -secret", errUsage)
	}
	cfg, logger, err := setup(cf, stderr)
	if err != nil {
		return err
	}

	payload := []byte(*text)
	if *payloadFile != "" {
		if payload, err = os.ReadFile(*payloadFile); err != nil {
			return err
		}
	}
	key, err := stegano.DeriveKey([]byte(*secret), []byte(cfg.Salt))
	if err != nil {
		return err
	}
	cover, format, err := imageio.Load(*cf.input)
	if err != nil {
		return err
	}
	stego, err := stegano.Encode(ctx, cover, payload, key, cfg.options(logger)...)
	if err != nil {
		return err
	}
	if err := imageio.Save(*output, stego); err != nil {
		return err
	}
	logger.Info().
		Str("input", *cf.input).
		Str("format", format).
		Str("output", *output).
		Int("payload", len(payload)).
		Msg("payload embedded")
	return nil
}

func runDecode(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, cf := newFlagSet("decode", stderr)
	secret := fs.String("secret", "", "secret the key is derived from (required)")
	output := fs.String("output", "", "file to write the payload to, stdout (raw bytes) by default")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *cf.input == "" || *secret == "" {
		fs.PrintDefaults()
		return fmt.Errorf("%w: decode needs -input and -secret", errUsage)
	}
	cfg, logger, err := setup(cf, stderr)
	if err != nil {
		return err
	}

	key, err := stegano.DeriveKey([]byte(*secret), []byte(cfg.Salt))
	if err != nil {
		return err
	}
	stego, _, err := imageio.Load(*cf.input)
	if err != nil {
		return err
	}
	payload, err := stegano.Decode(ctx, stego, key, cfg.options(logger)...)
	if err != nil {
		return err
	}
	if *output != "" {
		return os.WriteFile(*output, payload, 0o644)
	}
	_, err = stdout.Write(payload)
	return err
}

func runCapacity(args []string, stdout, stderr io.Writer) error {
	fs, cf := newFlagSet("capacity", stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *cf.input == "" {
		fs.PrintDefaults()
		return fmt.Errorf("%w: capacity needs -input", errUsage)
	}
	cfg, logger, err := setup(cf, stderr)
	if err != nil {
		return err
	}
	img, _, err := imageio.Load(*cf.input)
	if err != nil {
		return err
	}
	s, err := stegano.New(cfg.options(logger)...)
	if err != nil {
		return err
	}
	maxPayload := max(s.MaxPayload(img), 0)
	_, err = fmt.Fprintf(stdout, "capacity: %d bits\nmax payload: %d bytes\n", s.Capacity(img), maxPayload)
	return err
}

func runAnalyze(args []string, stdout, stderr io.Writer) error {
	fs, cf := newFlagSet("analyze", stderr)
	coverPath := fs.String("cover", "", "original cover image, enables distortion metrics")
	samples := fs.Int("samples", 0, "number of leading carrier samples to test, 0 for all")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *cf.input == "" {
		fs.PrintDefaults()
		return fmt.Errorf("%w: analyze needs -input", errUsage)
	}
	cfg, _, err := setup(cf, stderr)
	if err != nil {
		return err
	}
	img, _, err := imageio.Load(*cf.input)
	if err != nil {
		return err
	}

	d := quality.ChiSquare(img, cfg.Channel, *samples)
	fmt.Fprintf(stdout, "channel: %s\nsamples: %d\nchi-square: %.3f (dof %d)\nembedding probability: %.4f\n",
		cfg.Channel, d.Samples, d.Statistic, d.DoF, d.Probability)
	if *coverPath == "" {
		return nil
	}
	cover, _, err := imageio.Load(*coverPath)
	if err != nil {
		return err
	}
	r, err := quality.Compare(cover, img)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "changed pixels: %d of %d\nmse: %.6f\npsnr: %.2f dB\nluma psnr: %.2f dB\n",
		r.Changed, r.Pixels, r.MSE, r.PSNR, r.LumaPSNR)
	return err
}
