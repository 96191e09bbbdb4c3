package gitrepo

import (
	"path"
	"path/filepath"
	"strings"
)

const (
	httpProtocolPrefixConstant  = "http://"
	httpsProtocolPrefixConstant = "https://"
	ftpProtocolPrefixConstant   = "ftp://"
	ftpsProtocolPrefixConstant  = "ftps://"
	gitUserPrefixConstant       = "git@"
	sshPathDelimiterConstant    = ":"
	pathSeparatorConstant       = "/"
	gitSuffixConstant           = ".git"
)

var recognizedRemotePrefixes = []string{
	httpProtocolPrefixConstant,
	httpsProtocolPrefixConstant,
	ftpProtocolPrefixConstant,
	ftpsProtocolPrefixConstant,
	gitUserPrefixConstant,
}

// NormalizeRemoteURL converts a raw remote URL into its browsable form. Only http(s),
// ftp(s) and git@ remotes are recognized; anything else reports false. SCP-style
// git@host:path remotes become https://host/path and a trailing .git is removed.
func NormalizeRemoteURL(rawRemoteURL string) (string, bool) {
	trimmedRemoteURL := strings.TrimSpace(rawRemoteURL)
	if !hasRecognizedPrefix(trimmedRemoteURL) {
		return "", false
	}

	normalizedRemoteURL := trimmedRemoteURL
	if strings.HasPrefix(trimmedRemoteURL, gitUserPrefixConstant) {
		hostAndPath := strings.TrimPrefix(trimmedRemoteURL, gitUserPrefixConstant)
		host, repositoryPath, found := strings.Cut(hostAndPath, sshPathDelimiterConstant)
		if !found || len(host) == 0 {
			return "", false
		}
		normalizedRemoteURL = httpsProtocolPrefixConstant + host + pathSeparatorConstant + strings.TrimPrefix(repositoryPath, pathSeparatorConstant)
	}

	normalizedRemoteURL = strings.TrimSuffix(normalizedRemoteURL, pathSeparatorConstant)
	normalizedRemoteURL = strings.TrimSuffix(normalizedRemoteURL, gitSuffixConstant)
	return normalizedRemoteURL, true
}

// ProjectName derives a display name for a repository: the final path segment of
// its normalized remote URL when one exists, otherwise the base name of the root.
func ProjectName(normalizedRemoteURL string, remoteAvailable bool, repositoryRoot string) string {
	if remoteAvailable {
		trimmedRemoteURL := strings.TrimSuffix(strings.TrimSpace(normalizedRemoteURL), pathSeparatorConstant)
		if schemeIndex := strings.Index(trimmedRemoteURL, "://"); schemeIndex >= 0 {
			trimmedRemoteURL = trimmedRemoteURL[schemeIndex+len("://"):]
		}
		if strings.Contains(trimmedRemoteURL, pathSeparatorConstant) {
			lastSegment := strings.TrimSuffix(path.Base(trimmedRemoteURL), gitSuffixConstant)
			if len(lastSegment) > 0 {
				return lastSegment
			}
		}
	}
	return filepath.Base(filepath.Clean(repositoryRoot))
}

func hasRecognizedPrefix(remoteURL string) bool {
	loweredRemoteURL := strings.ToLower(remoteURL)
	for _, prefix := range recognizedRemotePrefixes {
		if strings.HasPrefix(loweredRemoteURL, prefix) && len(remoteURL) > len(prefix) {
			return true
		}
	}
	return false
}
