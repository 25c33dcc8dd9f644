// Package mediastore provides a media index for a shared storage volume.
//
// It plays the role of a platform media store: callers ask it to allocate an
// entry for a new image, receive a content URI, and write the bytes through
// an output stream opened on that URI. The index also learns about files
// written directly to the volume through ScanMedia.
//
// Features:
//   - Sequential content URIs (content://media/external/images/media/<id>)
//   - Collision-free file names with " (n)" suffixes
//   - Atomic JSON persistence using a temporary file and rename
//   - Safe for concurrent use across goroutines and processes: every
//     operation reloads the index under a lock file next to it
//   - File scans only index files under DCIM or Pictures
//
// Usage:
//
//	store, err := mediastore.Open(home, indexPath, log)
//	if err != nil {
//	    return err
//	}
//
//	uri, err := store.Insert(ctx, mediastore.Entry{
//	    DisplayName:  "cover",
//	    MIMEType:     "image/jpeg",
//	    RelativePath: "Pictures/Mangasaver/series-42",
//	})
//	w, err := store.OpenOutputStream(ctx, uri, "w")
//	// copy bytes into w, close it
//	store.ScanMedia(ctx, uri)
package mediastore
