package testing

import "fmt"

// SearchJSON is a trimmed search response: two video renderers, a duplicate
// of the first, a renderer without a title, a shelf item using runs for its
// length and a continuation command.
const SearchJSON = `{
  "responseContext": {"visitorData": "CgtTZWFyY2hWaXNpdG9y"},
  "contents": {
    "sectionListRenderer": {
      "contents": [
        {
          "itemSectionRenderer": {
            "contents": [
              {
                "videoRenderer": {
                  "videoId": "fJ9rUzIMcZQ",
                  "thumbnail": {"thumbnails": [{"url": "https://i.ytimg.com/vi/fJ9rUzIMcZQ/default.jpg"}, {"url": "https://i.ytimg.com/vi/fJ9rUzIMcZQ/hqdefault.jpg"}]},
                  "title": {"runs": [{"text": "Queen - Bohemian Rhapsody"}, {"text": " (Official Video)"}]},
                  "longBylineText": {"runs": [{"text": "Queen Official"}]},
                  "bylineText": {"runs": [{"text": "ignored"}]},
                  "lengthText": {"simpleText": "5:59"}
                }
              },
              {
                "videoRenderer": {
                  "videoId": "remix00001",
                  "title": {"runs": [{"text": "Bohemian Rhapsody Remix"}]},
                  "bylineText": {"runs": [{"text": "DJ Someone"}]},
                  "lengthText": {"runs": [{"text": "4"}, {"text": ":"}, {"text": "10"}]}
                }
              },
              {
                "videoRenderer": {
                  "videoId": "fJ9rUzIMcZQ",
                  "title": {"runs": [{"text": "Duplicate"}]}
                }
              },
              {
                "videoRenderer": {
                  "videoId": "untitled01"
                }
              },
              {
                "videoRenderer": {
                  "videoId": "nolength01",
                  "title": {"runs": [{"text": "Live at Wembley"}]}
                }
              }
            ]
          }
        },
        {
          "continuationItemRenderer": {
            "continuationEndpoint": {"continuationCommand": {"token": "EpcDEgVxdWVlbg", "request": "CONTINUATION_REQUEST_TYPE_SEARCH"}}
          }
        }
      ]
    }
  }
}`

// SearchPageTwoJSON answers a continuation request.
const SearchPageTwoJSON = `{
  "onResponseReceivedCommands": [
    {
      "appendContinuationItemsAction": {
        "continuationItems": [
          {
            "videoRenderer": {
              "videoId": "page2video1",
              "title": {"runs": [{"text": "Somebody to Love"}]},
              "bylineText": {"runs": [{"text": "Queen"}]},
              "lengthText": {"simpleText": "4:56"}
            }
          },
          {"nextContinuationData": {"continuation": "page3token"}}
        ]
      }
    }
  ]
}`

// PlayerJSON builds a player response for id whose audio formats expire at
// expireSecs (epoch seconds).
func PlayerJSON(id string, expireSecs int64) string {
	return fmt.Sprintf(`{
  "responseContext": {"visitorData": "CgtQbGF5ZXJWaXNpdG9y"},
  "playabilityStatus": {"status": "OK"},
  "videoDetails": {
    "videoId": %[1]q,
    "title": "Bohemian Rhapsody",
    "author": "Queen Official",
    "lengthSeconds": "359",
    "thumbnail": {"thumbnails": [{"url": "https://i.ytimg.com/vi/%[1]s/default.jpg"}, {"url": "https://i.ytimg.com/vi/%[1]s/maxresdefault.jpg"}]}
  },
  "streamingData": {
    "expiresInSeconds": "21540",
    "formats": [
      {"itag": 18, "mimeType": "video/mp4; codecs=\"avc1.42001E, mp4a.40.2\"", "bitrate": 503000, "url": "https://rr1.googlevideo.com/videoplayback?id=%[1]s&itag=18&expire=%[2]d"}
    ],
    "adaptiveFormats": [
      {"itag": 140, "mimeType": "audio/mp4; codecs=\"mp4a.40.2\"", "bitrate": 130000, "url": "https://rr1.googlevideo.com/videoplayback?id=%[1]s&itag=140&expire=%[2]d"},
      {"itag": 251, "mimeType": "audio/webm; codecs=\"opus\"", "bitrate": "160000", "url": "https://rr1.googlevideo.com/videoplayback?id=%[1]s&itag=251&expire=%[2]d"},
      {"itag": 250, "mimeType": "audio/webm; codecs=\"opus\"", "bitrate": 160000, "signatureCipher": "s=abc&url=https%%3A%%2F%%2Fexample"}
    ]
  }
}`, id, expireSecs)
}

// UnplayableJSON is a player response without streaming data.
const UnplayableJSON = `{
  "playabilityStatus": {"status": "LOGIN_REQUIRED"},
  "videoDetails": {"videoId": "private001", "title": "Private", "author": "Someone", "lengthSeconds": "3725"}
}`
