// Package fakesite is an in-process stand-in for the hosting service's
// /api/list, /api/upload and /api/delete endpoints, backed by a directory
// on disk. It exists so the client and CLI can be exercised end to end
// without network access.
//
//	root, _ := os.OpenRoot(dir)
//	srv := httptest.NewServer(fakesite.New(root, "secret").Router())
//	client := clientcli.New("secret", clientcli.WithEndpoint(srv.URL))
package fakesite
