//go:build unix

package walker

import (
	"io/fs"
	"os/user"
	"strconv"
	"sync"
	"syscall"
)

var (
	ownerMu    sync.Mutex
	ownerCache = make(map[uint32]string)
)

// ownerOf resolves the user name owning a file, falling back to the numeric
// uid when the account cannot be looked up.
func ownerOf(info fs.FileInfo) string {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return ""
	}

	ownerMu.Lock()
	defer ownerMu.Unlock()

	if name, ok := ownerCache[st.Uid]; ok {
		return name
	}

	uid := strconv.FormatUint(uint64(st.Uid), 10)
	name := uid
	if u, err := user.LookupId(uid); err == nil {
		name = u.Username
	}
	ownerCache[st.Uid] = name
	return name
}
