package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/exac-annot/internal/annotate"
	"github.com/inodb/exac-annot/internal/duckdb"
	"github.com/inodb/exac-annot/internal/exac"
	"github.com/inodb/exac-annot/internal/output"
	"github.com/inodb/exac-annot/internal/vcf"
)

func newAnnotateCmd(logger func() *zap.Logger) *cobra.Command {
	var inputPath, outputBase string

	cmd := &cobra.Command{
		Use:   "annotate -i <input.vcf> [-o <basename>]",
		Short: "Annotate a VCF file with ExAC data",
		Long: `Annotate every variant of a VCF file with read-depth statistics, the ExAC
allele frequency and the most severe ExAC consequence.

Outputs default to <input>_annotated.vcf and <input>_annotated.csv, where
<input> is the input path up to its first ".vcf". With -o the outputs are
<basename>.vcf and <basename>.csv. Nothing is written unless the whole
file annotates successfully.`,
		Example: `  exac-annot annotate -i sample.vcf
  exac-annot annotate -i sample.vcf.gz -o results/sample
  EXAC_ANNOT_EXAC_BATCH_SIZE=500 exac-annot annotate -i large.vcf`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputPath == "" {
				return &usageError{err: errors.New("input file required (-i)")}
			}
			log := logger()
			defer log.Sync()
			return runAnnotate(cmd.Context(), viper.GetViper(), log, inputPath, outputBase)
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Input VCF file (plain or gzip)")
	cmd.Flags().StringVarP(&outputBase, "output", "o", "", "Output basename (default: <input>_annotated)")

	return cmd
}

// outputPaths derives the VCF and CSV output paths.
func outputPaths(inputPath, base string) (vcfPath, csvPath string) {
	if base == "" {
		base = strings.Split(inputPath, ".vcf")[0] + "_annotated"
	}
	return base + ".vcf", base + ".csv"
}

func runAnnotate(ctx context.Context, v *viper.Viper, logger *zap.Logger, inputPath, outputBase string) error {
	started := time.Now()
	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))

	info, err := os.Stat(inputPath)
	if err != nil {
		return fmt.Errorf("input file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("input file: %s is a directory", inputPath)
	}

	parser, err := vcf.NewParser(inputPath)
	if err != nil {
		return err
	}
	defer parser.Close()

	opts, err := loadOptions(v)
	if err != nil {
		return err
	}
	client := exac.NewClient(opts)
	client.SetLogger(logger)

	var lookup annotate.Lookup = client
	var store *duckdb.Store
	if v.GetBool("cache.enabled") {
		path := v.GetString("cache.path")
		if path == "" {
			path = defaultCachePath()
		}
		store, err = duckdb.Open(path)
		if err != nil {
			return fmt.Errorf("open lookup cache: %w", err)
		}
		defer store.Close()

		cached := exac.NewCachedLookup(client, store.LookupCache(runID))
		cached.SetLogger(logger)
		lookup = cached
		logger.Debug("using lookup cache", zap.String("path", path))
	}

	ann := annotate.NewAnnotator(lookup)
	ann.SetLogger(logger)

	res, err := ann.Annotate(ctx, parser)
	if err != nil {
		return err
	}

	vcfPath, csvPath := outputPaths(inputPath, outputBase)
	if err := writeOutputs(res, vcfPath, csvPath); err != nil {
		return err
	}

	logger.Info("annotation complete",
		zap.Int("records", res.Summary.Records),
		zap.Int("identities", res.Summary.Identities),
		zap.Int("missing_frequency", res.Summary.MissingFreq),
		zap.Int("missing_consequence", res.Summary.MissingConsequence),
		zap.String("vcf", vcfPath),
		zap.String("csv", csvPath),
		zap.Duration("elapsed", time.Since(started)))

	if store != nil {
		fp, err := duckdb.StatFile(inputPath)
		if err != nil {
			return fmt.Errorf("fingerprint input: %w", err)
		}
		if err := store.RecordRun(duckdb.Run{
			ID:         runID,
			Input:      fp,
			Records:    res.Summary.Records,
			Identities: res.Summary.Identities,
			StartedAt:  started,
			FinishedAt: time.Now(),
		}); err != nil {
			logger.Warn("could not record run", zap.Error(err))
		}
	}

	return nil
}

// writeOutputs writes both outputs to temporary files and renames them into
// place only when both are complete.
func writeOutputs(res *annotate.Result, vcfPath, csvPath string) error {
	vcfFile, err := output.CreateAtomic(vcfPath)
	if err != nil {
		return err
	}
	defer vcfFile.Abort()

	csvFile, err := output.CreateAtomic(csvPath)
	if err != nil {
		return err
	}
	defer csvFile.Abort()

	if err := res.WriteTo(output.NewVCFWriter(vcfFile), output.NewTableWriter(csvFile)); err != nil {
		return err
	}

	if err := vcfFile.Commit(); err != nil {
		return err
	}
	return csvFile.Commit()
}

// hintFor suggests a fix for common failures.
func hintFor(err error) string {
	var (
		ue  *usageError
		pe  *vcf.ParseError
		mfe *annotate.MissingFieldError
		se  *exac.ServiceError
		ce  *annotate.ConsistencyError
		we  *output.WriteError
	)
	switch {
	case errors.As(err, &ue):
		return "Run 'exac-annot --help' for usage"
	case errors.Is(err, os.ErrNotExist) && !errors.As(err, &we):
		return "Check that the file path is correct"
	case errors.As(err, &pe):
		return "Input must be a tab-separated VCF with at least 9 columns"
	case errors.As(err, &mfe):
		return "Every record needs TYPE, DP, AO and RO INFO fields"
	case errors.As(err, &se):
		return "Check network access to ExAC, or raise exac.timeout and exac.max_retries"
	case errors.As(err, &ce):
		return "The ExAC response did not match the queried variants; try again or clear the cache"
	case errors.As(err, &we):
		return "Check that the output directory exists and is writable"
	}
	return ""
}
