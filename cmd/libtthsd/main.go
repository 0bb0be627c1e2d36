// Command libtthsd is the cgo shim exposing the engine's seven C ABI
// operations (spec.md section 6) for -buildmode=c-shared consumers: Go
// CGo, Java JNA/JNI, .NET P/Invoke, Node.js Koffi, C++, Godot GDExtension —
// every one of them a consumer of the symbols exported below, never of
// Go types directly. All real logic lives in internal/engineapi; this file
// is nothing but marshalling between C and Go.
package main

/*
#include <stdlib.h>
#include <stdbool.h>

typedef void (*tthsd_callback_t)(const char*, const char*);

static inline void tthsd_invoke_callback(tthsd_callback_t cb, const char* event, const char* data) {
    if (cb != NULL) {
        cb(event, data);
    }
}
*/
import "C"

import (
	"unsafe"

	"github.com/tthsd/engine/internal/engineapi"
)

// optBool reads an optional *_Bool, C's spelling for a nullable boolean
// (spec.md section 6: "const _Bool* may be null to mean 'unspecified, use
// default'").
func optBool(p *C.bool) *bool {
	if p == nil {
		return nil
	}
	v := bool(*p)
	return &v
}

func cString(p *C.char) string {
	if p == nil {
		return ""
	}
	return C.GoString(p)
}

// makeCallback adapts a C function pointer into the engine's in-process
// EmitFunc. A null cb is valid and yields a nil EmitFunc (spec.md section
// 9: "engine must accept a null callback pointer" for remote-sink-only
// consumers like Android/JNI).
func makeCallback(cb C.tthsd_callback_t) func(eventJSON, dataJSON string) {
	if cb == nil {
		return nil
	}
	return func(eventJSON, dataJSON string) {
		cEvent := C.CString(eventJSON)
		cData := C.CString(dataJSON)
		defer C.free(unsafe.Pointer(cEvent))
		defer C.free(unsafe.Pointer(cData))
		C.tthsd_invoke_callback(cb, cEvent, cData)
	}
}

func buildOptions(threads, chunkMB C.int, cb C.tthsd_callback_t, useCbURL C.bool, userAgent, cbURL *C.char, useSocket *C.bool, isMultiple *C.bool) engineapi.Options {
	return engineapi.Options{
		Threads:        int(threads),
		ChunkMB:        int(chunkMB),
		Callback:       makeCallback(cb),
		UseCallbackURL: bool(useCbURL),
		UserAgent:      cString(userAgent),
		CallbackURL:    cString(cbURL),
		UseSocket:      optBool(useSocket) != nil && *optBool(useSocket),
		IsMultiple:     optBool(isMultiple),
	}
}

//export start_download
func start_download(tasksJSON *C.char, count, threads, chunkMB C.int, cb C.tthsd_callback_t, useCbURL C.bool, userAgent, cbURL *C.char, useSocket, isMultiple *C.bool) C.int {
	opts := buildOptions(threads, chunkMB, cb, useCbURL, userAgent, cbURL, useSocket, isMultiple)
	id, err := engineapi.StartDownload(cString(tasksJSON), int(count), opts)
	if err != nil {
		return -1
	}
	return C.int(id)
}

//export get_downloader
func get_downloader(tasksJSON *C.char, count, threads, chunkMB C.int, cb C.tthsd_callback_t, useCbURL C.bool, userAgent, cbURL *C.char, useSocket *C.bool) C.int {
	opts := buildOptions(threads, chunkMB, cb, useCbURL, userAgent, cbURL, useSocket, nil)
	id, err := engineapi.GetDownloader(cString(tasksJSON), int(count), opts)
	if err != nil {
		return -1
	}
	return C.int(id)
}

//export start_download_id
func start_download_id(id C.int) C.int {
	if err := engineapi.StartDownloadID(int(id)); err != nil {
		return -1
	}
	return 0
}

//export start_multiple_downloads_id
func start_multiple_downloads_id(id C.int) C.int {
	if err := engineapi.StartMultipleDownloadsID(int(id)); err != nil {
		return -1
	}
	return 0
}

//export pause_download
func pause_download(id C.int) C.int {
	if err := engineapi.PauseDownload(int(id)); err != nil {
		return -1
	}
	return 0
}

//export resume_download
func resume_download(id C.int) C.int {
	if err := engineapi.ResumeDownload(int(id)); err != nil {
		return -1
	}
	return 0
}

//export stop_download
func stop_download(id C.int) C.int {
	if err := engineapi.StopDownload(int(id)); err != nil {
		return -1
	}
	return 0
}

func main() {}
