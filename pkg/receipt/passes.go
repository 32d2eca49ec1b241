package receipt

import (
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
	"github.com/rs/zerolog/log"
)

const (
	textWhitelist  = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz$€£.,:#&'()/-* \n"
	digitWhitelist = "0123456789$., \n"
)

type pass struct {
	name      string
	whitelist string
	mode      gosseract.PageSegMode
	useOrig   bool
	adaptive  bool
}

var passes = []pass{
	{name: "base", whitelist: textWhitelist, mode: gosseract.PSM_AUTO},
	{name: "digits", whitelist: digitWhitelist, mode: gosseract.PSM_AUTO},
	{name: "adaptive", whitelist: textWhitelist, mode: gosseract.PSM_AUTO, adaptive: true},
	{name: "orig-block", whitelist: textWhitelist, mode: gosseract.PSM_SINGLE_BLOCK, useOrig: true},
	{name: "orig-sparse", whitelist: textWhitelist, mode: gosseract.PSM_SPARSE_TEXT, useOrig: true},
}

// runPasses OCRs the image several ways and returns the text of every pass
// that succeeded, in pass order. The first entry keeps line breaks for merchant guessing.
func runPasses(path string) ([]string, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	base, adaptive := prepare(img)

	basePath, err := saveTemp(base, "receipt-base-*.png")
	if err != nil {
		return nil, err
	}
	defer os.Remove(basePath)
	adaptivePath, err := saveTemp(adaptive, "receipt-adv-*.png")
	if err != nil {
		return nil, err
	}
	defer os.Remove(adaptivePath)

	var texts []string
	for _, p := range passes {
		src := basePath
		switch {
		case p.useOrig:
			src = path
		case p.adaptive:
			src = adaptivePath
		}
		t, err := ocrText(src, p.whitelist, p.mode)
		if err != nil {
			log.Debug().Err(err).Str("pass", p.name).Msg("ocr pass failed")
			continue
		}
		texts = append(texts, t)
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("ocr: every pass failed for %s", path)
	}
	log.Debug().Str("file", path).Int("passes", len(texts)).Msg("ocr passes done")
	return texts, nil
}

func ocrText(path, whitelist string, mode gosseract.PageSegMode) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage("eng"); err != nil {
		return "", err
	}
	if err := client.SetWhitelist(whitelist); err != nil {
		return "", err
	}
	if err := client.SetPageSegMode(mode); err != nil {
		return "", err
	}
	if err := client.SetImage(path); err != nil {
		return "", err
	}
	return client.Text()
}

func saveTemp(img image.Image, pattern string) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", fmt.Errorf("temp file: %w", err)
	}
	name := f.Name()
	_ = f.Close()
	if err := imaging.Save(img, name); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("save %s: %w", name, err)
	}
	return name, nil
}
