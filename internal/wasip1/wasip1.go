package wasip1

// Wire-struct byte sizes fixed by the WASI preview-1 ABI. See the spec's
// memory-marshalling section for the exact field layout of each.
const (
	IovecSize    = 8
	FdstatSize   = 24
	FilestatSize = 64
	DirentSize   = 24
)

// Clock IDs understood by clock_res_get/clock_time_get.
//
// clockIDProcessCputime and clockIDThreadCputime were removed by the WASI
// maintainers (see WebAssembly/wasi-libc#294) and are never valid here.
const (
	ClockIDRealtime = iota
	ClockIDMonotonic
)

// Rights bits of the full WASI preview-1 rights vocabulary. This host
// enforces none of them: path_open stores rights_base/rights_inheriting as
// opaque bitmasks and fd_fdstat_get reports them back, matching spec.md's
// OpenFile model.
const (
	RightFdDatasync = uint64(1) << iota
	RightFdRead
	RightFdSeek
	RightFdFdstatSetFlags
	RightFdSync
	RightFdTell
	RightFdWrite
	RightFdAdvise
	RightFdAllocate
	RightPathCreateDirectory
	RightPathCreateFile
	RightPathLinkSource
	RightPathLinkTarget
	RightPathOpen
	RightFdReaddir
	RightPathReadlink
	RightPathRenameSource
	RightPathRenameTarget
	RightPathFilestatGet
	RightPathFilestatSetSize
	RightPathFilestatSetTimes
	RightFdFilestatGet
	RightFdFilestatSetSize
	RightFdFilestatSetTimes
	RightPathSymlink
	RightPathRemoveDirectory
	RightPathUnlinkFile
	RightPollFdReadwrite
	RightSockShutdown
	RightSockAccept
)

// Fdflags bits (fd_fdstat's fs_flags field and fdflags passed to
// path_open).
const (
	FdflagAppend = uint16(1) << iota
	FdflagDsync
	FdflagNonblock
	FdflagRsync
	FdflagSync
)

// Oflags bits passed to path_open.
const (
	OflagCreat = uint16(1) << iota
	OflagDirectory
	OflagExcl
	OflagTrunc
)

// Lookupflags bits passed to path_open/path_filestat_get et al.
const (
	LookupflagSymlinkFollow = uint32(1) << iota
)

// Fstflags bits passed to fd_filestat_set_times/path_filestat_set_times.
const (
	FstflagAtim = uint16(1) << iota
	FstflagAtimNow
	FstflagMtim
	FstflagMtimNow
)

// Filetype values used in fdstat/filestat/dirent.
const (
	FiletypeUnknown uint8 = iota
	FiletypeBlockDevice
	FiletypeCharacterDevice
	FiletypeDirectory
	FiletypeRegularFile
	FiletypeSocketDgram
	FiletypeSocketStream
	FiletypeSymbolicLink
)

// Eventtype values tagging a subscription/event union in poll_oneoff.
const (
	EventtypeClock uint8 = iota
	EventtypeFdRead
	EventtypeFdWrite
)

// Whence values passed to fd_seek.
const (
	WhenceSet uint8 = iota
	WhenceCur
	WhenceEnd
)

// Preview-1 import function names, under the wasi_snapshot_preview1
// namespace.
const (
	ArgsGetName           = "args_get"
	ArgsSizesGetName       = "args_sizes_get"
	EnvironGetName         = "environ_get"
	EnvironSizesGetName    = "environ_sizes_get"
	ClockResGetName        = "clock_res_get"
	ClockTimeGetName       = "clock_time_get"
	FdAdviseName           = "fd_advise"
	FdAllocateName         = "fd_allocate"
	FdCloseName            = "fd_close"
	FdDatasyncName         = "fd_datasync"
	FdFdstatGetName        = "fd_fdstat_get"
	FdFdstatSetFlagsName   = "fd_fdstat_set_flags"
	FdFdstatSetRightsName  = "fd_fdstat_set_rights"
	FdFilestatGetName      = "fd_filestat_get"
	FdFilestatSetSizeName  = "fd_filestat_set_size"
	FdFilestatSetTimesName = "fd_filestat_set_times"
	FdPreadName            = "fd_pread"
	FdPrestatGetName       = "fd_prestat_get"
	FdPrestatDirNameName   = "fd_prestat_dir_name"
	FdPwriteName           = "fd_pwrite"
	FdReadName             = "fd_read"
	FdReaddirName          = "fd_readdir"
	FdRenumberName         = "fd_renumber"
	FdSeekName             = "fd_seek"
	FdSyncName             = "fd_sync"
	FdTellName             = "fd_tell"
	FdWriteName            = "fd_write"
	PathCreateDirectoryName = "path_create_directory"
	PathFilestatGetName     = "path_filestat_get"
	PathFilestatSetTimesName = "path_filestat_set_times"
	PathLinkName            = "path_link"
	PathOpenName            = "path_open"
	PathReadlinkName        = "path_readlink"
	PathRemoveDirectoryName = "path_remove_directory"
	PathRenameName          = "path_rename"
	PathSymlinkName         = "path_symlink"
	PathUnlinkFileName      = "path_unlink_file"
	PollOneoffName          = "poll_oneoff"
	ProcExitName            = "proc_exit"
	ProcRaiseName           = "proc_raise"
	RandomGetName           = "random_get"
	SchedYieldName          = "sched_yield"
	SockAcceptName          = "sock_accept"
	SockRecvName            = "sock_recv"
	SockSendName            = "sock_send"
	SockShutdownName        = "sock_shutdown"
)
