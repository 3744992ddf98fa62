//go:build darwin

package permissions

/*
#cgo LDFLAGS: -framework AVFoundation
#import <AVFoundation/AVFoundation.h>

int microphoneStatus() {
    return (int)[AVCaptureDevice authorizationStatusForMediaType:AVMediaTypeAudio];
}

void requestMicrophone() {
    [AVCaptureDevice requestAccessForMediaType:AVMediaTypeAudio completionHandler:^(BOOL granted) {}];
}
*/
import "C"

// microphoneStatus maps AVAuthorizationStatus onto Status; the values
// line up.
func microphoneStatus() Status {
	return Status(C.microphoneStatus())
}

func requestMicrophone() {
	C.requestMicrophone()
}
