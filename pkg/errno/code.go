package errno

// code=0 请求成功
// code=4xx 客户端请求错误
// code=5xx 服务器端错误
// code=2xxxx 业务处理错误码

type Errno struct {
	Code    int
	Message string
}

// Error 实现error接口
func (e *Errno) Error() string {
	return e.Message
}

var (
	OK = &Errno{Code: 200, Message: "Success"}

	ErrInvalidParam   = &Errno{Code: 400, Message: "Invalid parameter"}
	ErrNotFound       = &Errno{Code: 404, Message: "Not found"}
	ErrInternalServer = &Errno{Code: 500, Message: "Internal server error"}
	ErrDatabase       = &Errno{Code: 501, Message: "Database error"}

	// 存储与上传
	ErrStorageInit      = &Errno{Code: 20001, Message: "Storage directories cannot be initialized"}
	ErrUploadValidation = &Errno{Code: 20002, Message: "Upload is invalid"}
	ErrUnsafePath       = &Errno{Code: 20003, Message: "Path is unsafe"}
	ErrVideoNotFound    = &Errno{Code: 20004, Message: "Video not found"}
	ErrFileNotFound     = &Errno{Code: 20005, Message: "File not found"}

	// 转码
	ErrEncodeSpawn         = &Errno{Code: 20101, Message: "Encoder could not be started"}
	ErrEncodeFailed        = &Errno{Code: 20102, Message: "Encoder exited with failure"}
	ErrEncodeTimeout       = &Errno{Code: 20103, Message: "Encoder timed out"}
	ErrEncodeOutputInvalid = &Errno{Code: 20104, Message: "Encoder output is incomplete"}
	ErrJobAlreadyRunning   = &Errno{Code: 20105, Message: "Transcode job already running"}
	ErrInvalidVideoState   = &Errno{Code: 20106, Message: "Video state does not allow this operation"}
	ErrQueueFull           = &Errno{Code: 20107, Message: "Task queue is full"}

	// 播放
	ErrRangeParse = &Errno{Code: 20201, Message: "Range header is invalid"}
	ErrStreamRead = &Errno{Code: 20202, Message: "Failed to read media"}
)
