package document

import (
	"bytes"
	"fmt"
	"image/jpeg"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/filter"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"docshrink/internal/converter"
	"docshrink/internal/profile"
)

// PDFAdapter recompresses JPEG image XObjects inside a PDF.
type PDFAdapter struct{}

// Images below roughly 100x100 px are icons and rules; recompressing them
// saves nothing and can visibly degrade them.
const minImagePixels = 10000

func (a *PDFAdapter) Compress(src []byte, p profile.Profile) ([]byte, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(src), conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedContainer, err)
	}

	replaced := 0
	for _, entry := range ctx.XRefTable.Table {
		if entry == nil || entry.Free {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok || !eligibleImageStream(&sd) {
			continue
		}

		out, err := converter.Recompress(sd.Raw, p)
		if err != nil || len(out) >= len(sd.Raw) {
			// A broken or incompressible image stays as it was. One bad
			// image never fails the document.
			continue
		}
		if !substituteImageStream(&sd, out) {
			continue
		}
		entry.Object = sd
		replaced++
	}

	if replaced == 0 {
		return src, nil
	}

	if err := api.OptimizeContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReassembly, err)
	}

	var buf bytes.Buffer
	if err := api.WriteContext(ctx, &buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReassembly, err)
	}

	// Size floor: a rebuilt PDF that grew is discarded in favor of the
	// original bytes.
	if buf.Len() >= len(src) {
		return src, nil
	}
	return buf.Bytes(), nil
}

// eligibleImageStream reports whether sd is a plain JPEG image XObject that
// can be swapped for a re-encoded one. Masked or stencil images are skipped:
// replacing them would change dimensions the mask depends on.
func eligibleImageStream(sd *types.StreamDict) bool {
	if st := sd.Dict.Subtype(); st == nil || *st != "Image" {
		return false
	}
	if len(sd.FilterPipeline) != 1 || sd.FilterPipeline[0].Name != filter.DCT {
		return false
	}
	if _, found := sd.Dict.Find("SMask"); found {
		return false
	}
	if _, found := sd.Dict.Find("Mask"); found {
		return false
	}
	if im := sd.Dict.BooleanEntry("ImageMask"); im != nil && *im {
		return false
	}
	w := sd.Dict.IntEntry("Width")
	h := sd.Dict.IntEntry("Height")
	if w == nil || h == nil || *w**h < minImagePixels {
		return false
	}
	return len(sd.Raw) > 0
}

func substituteImageStream(sd *types.StreamDict, jpegData []byte) bool {
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(jpegData))
	if err != nil {
		return false
	}

	sd.Raw = jpegData
	sd.Content = nil
	sd.FilterPipeline = []types.PDFFilter{{Name: filter.DCT}}

	d := sd.Dict
	d["Filter"] = types.Name(filter.DCT)
	delete(d, "DecodeParms")
	delete(d, "Decode")
	d["Width"] = types.Integer(cfg.Width)
	d["Height"] = types.Integer(cfg.Height)
	d["ColorSpace"] = types.Name("DeviceRGB")
	d["BitsPerComponent"] = types.Integer(8)
	d["Length"] = types.Integer(len(jpegData))

	l := int64(len(jpegData))
	sd.StreamLength = &l
	return true
}
