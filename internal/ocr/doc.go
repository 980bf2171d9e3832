// Package ocr supplies word-level OCR boxes to the text region grouper.
//
// The Tesseract engine is reached through gosseract/v2, which links against
// the native library. Tesseract and its language data must be installed:
//   - Ubuntu/Debian: apt-get install tesseract-ocr libtesseract-dev
//   - macOS: brew install tesseract
//
// Set TESSDATA_PREFIX (or the ocr.tessdata_prefix config key) when the
// language files live outside Tesseract's default search path.
//
// Detection code depends only on the WordSource interface, so tests and
// alternative OCR backends can supply words without Tesseract.
package ocr
