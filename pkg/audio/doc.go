// Package audio implements the client-side audio pipeline for voicelive.
//
// The pipeline has three parts:
//
//   - Codec: lossless conversion between s16le PCM and its base64 wire form,
//     plus normalization into float frames for host-side processing.
//   - Capture: a microphone stream that slices live input into fixed-size
//     frames (4096 samples at 16 kHz mono) and hands them to a sink.
//   - Scheduler: gapless playback of decoded model audio (24 kHz mono) on a
//     shared device timeline, with immediate full interruption.
//
// Real devices are provided by malgo (capture) and oto (playback); both sit
// behind small interfaces so the pipeline is testable without hardware.
package audio
