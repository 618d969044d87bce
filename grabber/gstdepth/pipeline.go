package gstdepth

import (
	"fmt"
	"log/slog"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

// pipelineElements holds references to the GStreamer elements that the
// grabber needs after construction (callback registration and teardown).
type pipelineElements struct {
	Pipeline *gst.Pipeline
	AppSink  *app.Sink
	Source   *gst.Element
}

// createPipeline builds the depth capture pipeline:
//
//	uridecodebin → videoconvert → videoscale → videorate → capsfilter → appsink
//
// The capsfilter locks GRAY16_LE at the target grid and framerate, so the
// appsink always hands us width x height little-endian 16-bit depth
// images. The pipeline is configured but NOT started (state remains
// NULL); the caller moves it to PLAYING.
func createPipeline(uri string, width, height int, fps float64) (*pipelineElements, error) {
	// Safe to call multiple times.
	gst.Init(nil)

	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	source, err := gst.NewElement("uridecodebin")
	if err != nil {
		return nil, fmt.Errorf("failed to create uridecodebin: %w", err)
	}
	source.SetProperty("uri", uri)

	converter, err := gst.NewElement("videoconvert")
	if err != nil {
		return nil, fmt.Errorf("failed to create videoconvert: %w", err)
	}
	converter.SetProperty("n-threads", 0) // 0 = auto-detect cores

	scaler, err := gst.NewElement("videoscale")
	if err != nil {
		return nil, fmt.Errorf("failed to create videoscale: %w", err)
	}

	videorate, err := gst.NewElement("videorate")
	if err != nil {
		return nil, fmt.Errorf("failed to create videorate: %w", err)
	}
	videorate.SetProperty("drop-only", true)     // only drop, never duplicate
	videorate.SetProperty("skip-to-first", true) // no catch-up burst on start

	capsfilter, err := gst.NewElement("capsfilter")
	if err != nil {
		return nil, fmt.Errorf("failed to create capsfilter: %w", err)
	}
	capsStr := buildDepthCaps(width, height, fps)
	capsfilter.SetProperty("caps", gst.NewCapsFromString(capsStr))

	appsink, err := app.NewAppSink()
	if err != nil {
		return nil, fmt.Errorf("failed to create appsink: %w", err)
	}
	appsink.SetProperty("sync", false)    // real-time, no clock sync
	appsink.SetProperty("max-buffers", 1) // keep only the latest frame
	appsink.SetProperty("drop", true)     // drop old frames
	appsink.SetProperty("qos", true)      // let upstream drop pre-convert

	pipeline.AddMany(source, converter, scaler, videorate, capsfilter, appsink.Element)

	// uridecodebin has dynamic pads, linked in the pad-added callback.
	if err := gst.ElementLinkMany(converter, scaler, videorate, capsfilter, appsink.Element); err != nil {
		return nil, fmt.Errorf("failed to link pipeline elements: %w", err)
	}

	source.Connect("pad-added", func(self *gst.Element, srcPad *gst.Pad) {
		onPadAdded(self, srcPad, converter)
	})

	slog.Debug("gstdepth: pipeline created", "uri", uri, "caps", capsStr)

	return &pipelineElements{
		Pipeline: pipeline,
		AppSink:  appsink,
		Source:   source,
	}, nil
}

// destroyPipeline moves the pipeline to NULL, stopping the streaming
// thread and releasing its resources. Safe to call twice.
func destroyPipeline(elements *pipelineElements) error {
	if elements == nil || elements.Pipeline == nil {
		return nil
	}
	if err := elements.Pipeline.SetState(gst.StateNull); err != nil {
		return fmt.Errorf("failed to set pipeline to NULL: %w", err)
	}
	return nil
}

// onPadAdded links a freshly exposed uridecodebin source pad to the
// videoconvert input. Non-video pads fail the link and are ignored.
func onPadAdded(src *gst.Element, srcPad *gst.Pad, converter *gst.Element) {
	slog.Debug("gstdepth: pad-added signal received", "pad", srcPad.GetName())

	sinkPad := converter.GetStaticPad("sink")
	if sinkPad == nil {
		slog.Error("gstdepth: failed to get sink pad from videoconvert")
		return
	}
	if sinkPad.IsLinked() {
		return
	}

	if ret := srcPad.Link(sinkPad); ret != gst.PadLinkOK {
		slog.Debug("gstdepth: pad not linkable, ignoring",
			"src_pad", srcPad.GetName(),
			"ret", ret,
		)
		return
	}

	slog.Debug("gstdepth: pads linked",
		"src_pad", srcPad.GetName(),
		"sink_pad", sinkPad.GetName(),
	)
}

// buildDepthCaps builds the caps string that locks the appsink format.
//
// Handles fractional framerates the same way the rate flag does:
//
//	fps >= 1.0: framerate = fps/1
//	fps <  1.0: framerate = 1/(1/fps)
func buildDepthCaps(width, height int, fps float64) string {
	numerator := 1
	denominator := 1
	if fps < 1.0 {
		denominator = int(1.0 / fps)
	} else {
		numerator = int(fps)
	}
	return fmt.Sprintf(
		"video/x-raw,format=GRAY16_LE,width=%d,height=%d,framerate=%d/%d",
		width, height, numerator, denominator,
	)
}
