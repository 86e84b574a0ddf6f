package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/akamensky/argparse"
	"github.com/joho/godotenv"

	"github.com/ayusman/drishti/internal/app"
	"github.com/ayusman/drishti/internal/config"
	"github.com/ayusman/drishti/internal/detector"
	"github.com/ayusman/drishti/internal/source"
)

func main() {
	// A .env file can pin the model, project, device, and backend
	// defaults; flags still win.
	_ = godotenv.Load()

	defaults := config.Defaults()

	parser := argparse.NewParser("drishti", "YOLOv8 road-scene detection: image/video/webcam")
	srcArg := parser.String("", "source", &argparse.Options{Help: "Path to image/video, directory, webcam index (e.g., 0), stream URL, or 'browse'", Default: defaults.Source})
	model := parser.String("", "model", &argparse.Options{Help: "Path to YOLOv8 ONNX model weights", Default: defaults.Model})
	imgsz := parser.Int("", "imgsz", &argparse.Options{Help: "Inference image size", Default: defaults.ImgSize})
	conf := parser.Float("", "conf", &argparse.Options{Help: "Confidence threshold", Default: defaults.Conf})
	device := parser.String("", "device", &argparse.Options{Help: "cuda, cpu, or specific device index", Default: defaults.Device})
	show := parser.Flag("", "show", &argparse.Options{Help: "Display annotated frames in a window"})
	save := parser.Flag("", "save", &argparse.Options{Help: "Save annotated outputs to the run directory"})
	project := parser.String("", "project", &argparse.Options{Help: "Project directory for saving results", Default: defaults.Project})
	name := parser.String("", "name", &argparse.Options{Help: "Run name (auto-increments if omitted)", Default: ""})
	reencodeMP4 := parser.Flag("", "reencode-mp4", &argparse.Options{Help: "Convert saved .avi files to .mp4 for compatibility"})
	deleteAVI := parser.Flag("", "delete-avi", &argparse.Options{Help: "Delete .avi after successful re-encode to .mp4"})
	saveMP4Direct := parser.Flag("", "save-mp4-direct", &argparse.Options{Help: "Write annotated video directly to MP4 (no AVI)"})
	fps := parser.Float("", "fps", &argparse.Options{Help: "Output FPS when using --save-mp4-direct", Default: defaults.FPS})
	backend := parser.String("", "backend", &argparse.Options{Help: "Inference backend: auto, opencv, or onnx", Default: defaults.Backend})
	classes := parser.String("", "classes", &argparse.Options{Help: "YAML file with class names (defaults to COCO)", Default: ""})

	if err := parser.Parse(os.Args); err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	cfg := defaults
	cfg.Source = *srcArg
	cfg.Model = *model
	cfg.ImgSize = *imgsz
	cfg.Conf = *conf
	cfg.Device = *device
	cfg.Show = *show
	cfg.Save = *save
	cfg.Project = *project
	cfg.Name = *name
	cfg.ReencodeMP4 = *reencodeMP4
	cfg.DeleteAVI = *deleteAVI
	cfg.SaveMP4Direct = *saveMP4Direct
	cfg.FPS = *fps
	cfg.Backend = *backend
	cfg.Classes = *classes

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "drishti: %v\n", err)
		os.Exit(1)
	}
}

// run resolves the source, brings up the detector, and hands off to the
// app. Every fatal condition comes back as an error for main to report.
func run(cfg config.RunConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	desc, err := source.Resolve(cfg.Source, source.DialogPicker{})
	if err != nil {
		if errors.Is(err, source.ErrNoSourceSelected) {
			return errors.New("no file selected")
		}
		return err
	}
	log.Printf("Running detection on %s", desc)

	detCfg := detector.DefaultConfig()
	detCfg.ModelPath = cfg.Model
	detCfg.InputSize = cfg.ImgSize
	detCfg.ConfThreshold = float32(cfg.Conf)
	detCfg.Device = cfg.Device
	detCfg.ORTLibrary = cfg.ORTLibrary
	if cfg.Classes != "" {
		names, err := detector.LoadClassFile(cfg.Classes)
		if err != nil {
			return err
		}
		detCfg.Classes = names
	}

	det, err := detector.New(cfg.Backend, detCfg)
	if err != nil {
		return err
	}
	defer det.Close()

	return app.New(cfg, desc, det).Run()
}
