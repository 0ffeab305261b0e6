package audio

import (
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var (
	leftColour  = color.RGBA{R: 0x30, G: 0x62, B: 0x30, A: 0xFF}
	rightColour = color.RGBA{R: 0x8B, G: 0xAC, B: 0x0F, A: 0xFF}
)

// PlotWaveform renders samples against time and saves the plot to
// path. The image format follows the extension (png, svg, pdf...).
// Stereo samples are drawn as two lines.
func PlotWaveform(path string, samples []int16, rate int, stereo bool) error {
	p := plot.New()
	p.Title.Text = "Waveform"
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Amplitude"
	p.Y.Min, p.Y.Max = -32768, 32767

	channels := 1
	if stereo {
		channels = 2
	}
	for ch := 0; ch < channels; ch++ {
		xys := make(plotter.XYs, 0, len(samples)/channels)
		for i := ch; i < len(samples); i += channels {
			xys = append(xys, plotter.XY{
				X: float64(i/channels) / float64(rate),
				Y: float64(samples[i]),
			})
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return err
		}
		line.Color = leftColour
		name := "left"
		if ch == 1 {
			line.Color = rightColour
			name = "right"
		}
		p.Add(line)
		if stereo {
			p.Legend.Add(name, line)
		}
	}

	return p.Save(12*vg.Inch, 4*vg.Inch, path)
}
